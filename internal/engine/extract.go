package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// progressRe matches percentage readings in service log output,
// e.g. "37%" or "12.5 %".
var progressRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// Extract maps one raw service response to a normalized status and an
// optional progress percentage. It is pure: no I/O, no side effects, and
// it never fails. Unknown status vocabulary maps to Processing so the
// poll loop stays alive; missing or malformed progress yields nil.
func Extract(raw RawStatus) (Status, *float64) {
	return normalizeStatus(raw.Status), extractProgress(raw.Logs)
}

// normalizeStatus maps service-specific vocabulary onto the fixed state
// set. A service-reported cancellation is normalized to Failed: Canceled
// is reserved for explicit local cancellation.
func normalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued", "pending", "in_queue":
		return StatusQueued
	case "starting", "booting":
		return StatusStarting
	case "processing", "running", "in_progress":
		return StatusProcessing
	case "succeeded", "completed":
		return StatusSucceeded
	case "failed", "error":
		return StatusFailed
	case "canceled", "cancelled":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// extractProgress pulls the most recent percentage reading out of the
// accumulated log text. Logs grow append-only, so the last match is the
// freshest. Values are clamped to [0, 100].
func extractProgress(logs string) *float64 {
	if logs == "" {
		return nil
	}
	matches := progressRe.FindAllStringSubmatch(logs, -1)
	if len(matches) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return nil
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

// failureDetail derives the human-readable cause recorded on a failure
// transition.
func failureDetail(raw RawStatus) string {
	if raw.ErrorDetail != "" {
		return raw.ErrorDetail
	}
	switch strings.ToLower(strings.TrimSpace(raw.Status)) {
	case "canceled", "cancelled":
		return "canceled by service"
	default:
		return "generation failed without detail"
	}
}
