package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailTextUnquotesStringDetail(t *testing.T) {
	err := parseAPIError(400, []byte(`{"detail": "template not found"}`))
	assert.Equal(t, "template not found", err.DetailText())
	assert.Equal(t, 400, err.StatusCode)
}

func TestDetailTextRendersObjectDetailAsLiteralJSON(t *testing.T) {
	err := parseAPIError(422, []byte(`{"detail": {"loc": ["body", "contacts"], "msg": "field required"}}`))

	text := err.DetailText()
	assert.Contains(t, text, `"loc"`)
	assert.Contains(t, text, "field required")
	// Rendering must never panic regardless of shape; calling Error exercises
	// the same path.
	assert.NotPanics(t, func() { _ = err.Error() })
}

func TestDetailTextRendersArrayDetail(t *testing.T) {
	err := parseAPIError(422, []byte(`{"detail": [{"msg": "bad phone"}]}`))
	assert.Contains(t, err.DetailText(), "bad phone")
}

func TestParseAPIErrorFallsBackToRawBody(t *testing.T) {
	err := parseAPIError(502, []byte("upstream exploded"))
	assert.Equal(t, "upstream exploded", err.DetailText())
}

func TestDetailTextEmptyDetail(t *testing.T) {
	err := &APIError{StatusCode: 500}
	assert.Equal(t, "request failed", err.DetailText())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "body_2", Message: "missing value for variable {{2}}"}
	assert.Equal(t, "body_2: missing value for variable {{2}}", err.Error())

	bare := &ValidationError{Message: "select a template"}
	assert.Equal(t, "select a template", bare.Error())
}
