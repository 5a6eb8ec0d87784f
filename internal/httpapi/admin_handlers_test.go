package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntheticdata/internal/config"
	"syntheticdata/internal/engine"
)

func testAPI() *API {
	return New(engine.New(config.Config{}, nil))
}

// Scenario F (spec.md §8): an ill-typed schema must fail /validate with
// a 400 VALIDATION_ERROR envelope, not a 200 {"valid":false} body.
func TestHandleValidateRejectsIllTypedSchemaWith400(t *testing.T) {
	a := testAPI()
	body := `{"schema":{"type":"banana"}}`
	r := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	a.handleValidate(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, w.Body.String(), "banana")
}

func TestHandleValidateAcceptsWellFormedSchema(t *testing.T) {
	a := testAPI()
	body := `{"schema":{"type":"object","properties":{"id":{"type":"integer"}}}}`
	r := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	a.handleValidate(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)
}
