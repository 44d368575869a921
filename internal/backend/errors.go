package backend

import (
	"encoding/json"
	"fmt"
)

// ValidationError is a local pre-network failure. It is never sent to the
// backend; the operation that produced it issues no request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// APIError is a non-2xx backend response. Detail keeps the raw `detail`
// payload, which may be a JSON string or an arbitrary object.
type APIError struct {
	StatusCode int
	Detail     json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.DetailText())
}

// DetailText renders the detail for display. A JSON string is unquoted; any
// other shape is returned as literal serialized JSON so an unexpected object
// never reaches a renderer expecting a plain string.
func (e *APIError) DetailText() string {
	if len(e.Detail) == 0 {
		return "request failed"
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	return string(e.Detail)
}

// parseAPIError builds an APIError from a response body, pulling out the
// `detail` field when present and falling back to the whole body.
func parseAPIError(statusCode int, body []byte) *APIError {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		return &APIError{StatusCode: statusCode, Detail: envelope.Detail}
	}
	raw, _ := json.Marshal(string(body))
	return &APIError{StatusCode: statusCode, Detail: raw}
}
