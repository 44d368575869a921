package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"campaign-console/internal/backend"
	"campaign-console/internal/history"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderIn(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	renderError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRenderValidationErrorIs422(t *testing.T) {
	w, body := renderIn(t, &backend.ValidationError{Field: "body_2", Message: "missing value for variable {{2}}"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "missing value for variable {{2}}", body["error"])
	assert.Equal(t, "body_2", body["field"])
}

func TestRenderAPIErrorKeepsStatusAndLiteralDetail(t *testing.T) {
	apiErr := &backend.APIError{
		StatusCode: http.StatusConflict,
		Detail:     json.RawMessage(`{"msg": "already finished", "code": 17}`),
	}
	w, body := renderIn(t, apiErr)

	assert.Equal(t, http.StatusConflict, w.Code)
	// Object details surface as literal serialized text.
	assert.Contains(t, body["error"], `"already finished"`)
}

func TestRenderTransportErrorIs502(t *testing.T) {
	w, body := renderIn(t, errors.New("dial tcp: connection refused"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, body["error"], "connection refused")
}

func TestParseFilterDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/campaigns", nil)

	filter := parseFilter(c)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.PageSize)
	assert.Equal(t, "all", filter.Type)
	assert.Empty(t, filter.DateRange)
}

func TestParseFilterCustomDates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET",
		"/api/campaigns?date_range=custom&start_date=2026-08-01&end_date=2026-08-15&name=promo&status=PROCESSING&type=bulk&page=2&page_size=50", nil)

	filter := parseFilter(c)
	assert.Equal(t, history.RangeCustom, filter.DateRange)
	assert.Equal(t, "2026-08-01", filter.CustomStart.Format("2006-01-02"))
	assert.Equal(t, "2026-08-15", filter.CustomEnd.Format("2006-01-02"))
	assert.Equal(t, "promo", filter.Name)
	assert.Equal(t, "PROCESSING", filter.Status)
	assert.Equal(t, "bulk", filter.Type)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 50, filter.PageSize)
}
