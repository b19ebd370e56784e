package backend

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrUnauthorized is returned for 401 responses and for credentials that are
// known to be expired before a request is sent. Callers escalate it to a logout.
var ErrUnauthorized = errors.New("unauthorized")

// ErrPredictionFailed is returned when the prediction endpoint answers with success=false.
var ErrPredictionFailed = errors.New("prediction failed")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend request failed: status %d: %s", e.StatusCode, e.Message)
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"detail", "error", "message"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}
