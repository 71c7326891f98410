package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Static errors for Replicate client operations.
var (
	// ErrAPITokenNotSet is returned when no API token is provided and
	// REPLICATE_API_TOKEN is not set.
	ErrAPITokenNotSet = errors.New("replicate: REPLICATE_API_TOKEN is not set")
	// ErrModelRequired is returned when the model identifier is not provided.
	ErrModelRequired = errors.New("replicate: model is required")
	// ErrPredictionIDRequired is returned when the prediction ID is not provided.
	ErrPredictionIDRequired = errors.New("replicate: prediction ID is required")
	// ErrUnauthorized is returned when the API rejects the credential (401/403).
	ErrUnauthorized = errors.New("replicate: unauthorized")
	// ErrRateLimited is returned when the API returns a 429 status code.
	ErrRateLimited = errors.New("replicate: rate limited")
	// ErrServerError is returned when the API returns a 5xx status code.
	ErrServerError = errors.New("replicate: server error")
	// ErrTransport is returned when the request fails before an HTTP
	// response is received.
	ErrTransport = errors.New("replicate: transport error")
	// ErrRequestFailed is returned for any other non-2xx status code.
	ErrRequestFailed = errors.New("replicate: request failed")
)

// Client defines the interface for interacting with the Replicate API.
// Every method performs exactly one HTTP attempt; retry discipline belongs
// to the caller, because prediction creation is not idempotent.
type Client interface {
	// CreatePrediction submits a prediction for the given model and
	// returns the prediction ID.
	CreatePrediction(ctx context.Context, model string, input map[string]any) (id string, err error)

	// GetPrediction fetches the current state of a prediction.
	GetPrediction(ctx context.Context, id string) (Prediction, error)

	// CancelPrediction requests cancellation of a running prediction.
	CancelPrediction(ctx context.Context, id string) error
}

// HTTPClient is the HTTP implementation of the Replicate Client interface.
type HTTPClient struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIToken sets the API token for authentication.
func WithAPIToken(token string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiToken = token
	}
}

// WithBaseURL sets a custom base URL for the Replicate API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// NewClient creates a new Replicate HTTP client. The API token can be set
// via the WithAPIToken option; if not provided, it is read from the
// environment variable REPLICATE_API_TOKEN.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:    "https://api.replicate.com/v1",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiToken == "" {
		c.apiToken = os.Getenv("REPLICATE_API_TOKEN")
	}
	if c.apiToken == "" {
		return nil, ErrAPITokenNotSet
	}

	return c, nil
}

// CreatePrediction submits a prediction for the given model and returns
// the prediction ID.
func (c *HTTPClient) CreatePrediction(ctx context.Context, model string, input map[string]any) (string, error) {
	if model == "" {
		return "", ErrModelRequired
	}

	body, err := json.Marshal(createRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("replicate: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)

	var resp predictionResponse
	if err := c.doRequest(ctx, http.MethodPost, url, body, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// GetPrediction fetches the current state of a prediction.
func (c *HTTPClient) GetPrediction(ctx context.Context, id string) (Prediction, error) {
	if id == "" {
		return Prediction{}, ErrPredictionIDRequired
	}

	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, id)

	var resp predictionResponse
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return Prediction{}, err
	}

	return resp.toPrediction(), nil
}

// CancelPrediction requests cancellation of a running prediction.
func (c *HTTPClient) CancelPrediction(ctx context.Context, id string) error {
	if id == "" {
		return ErrPredictionIDRequired
	}

	url := fmt.Sprintf("%s/predictions/%s/cancel", c.baseURL, id)

	return c.doRequest(ctx, http.MethodPost, url, nil, nil)
}

// doRequest performs a single HTTP request and classifies failures by
// sentinel error so callers can decide what is retryable.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("replicate: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: status %d: %s", ErrUnauthorized, resp.StatusCode, string(respBody))
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))
		default:
			return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("replicate: unmarshal response: %w", err)
		}
	}

	return nil
}
