// Package replicate provides an HTTP client for the Replicate predictions API.
package replicate

import "encoding/json"

// Prediction is the normalized view of one remote prediction.
type Prediction struct {
	ID        string
	Status    string
	Logs      string
	OutputURL string // set when the prediction produced a downloadable artifact
	Error     string // set when the prediction failed
}

// createRequest represents the request body for the create-prediction call.
type createRequest struct {
	Input map[string]any `json:"input"`
}

// predictionResponse represents the wire shape of a prediction resource.
// Output and Error vary by model (string, list, object), so both are kept
// raw and decoded leniently.
type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Logs   string          `json:"logs,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// toPrediction normalizes a wire response.
func (r predictionResponse) toPrediction() Prediction {
	return Prediction{
		ID:        r.ID,
		Status:    r.Status,
		Logs:      r.Logs,
		OutputURL: extractOutputURL(r.Output),
		Error:     rawToString(r.Error),
	}
}

// extractOutputURL pulls the artifact URL out of a model-specific output
// shape: a bare string, a list of strings, or an object with a "url" field.
// Returns "" when no URL can be found.
func extractOutputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return extractOutputURL(list[0])
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}

	return ""
}

// rawToString renders a raw JSON value as a plain string for error text.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
