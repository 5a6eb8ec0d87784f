package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGenerateRequestRejectsBothSchemaFields(t *testing.T) {
	body := `{"schema":{"type":"object"},"schemas":[{"schema":{"type":"object"}}]}`
	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(body))
	_, err := decodeGenerateRequest(r)
	assert.Error(t, err)
}

func TestDecodeGenerateRequestDefaultsCountToOne(t *testing.T) {
	body := `{"schema":{"type":"object"}}`
	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(body))
	req, err := decodeGenerateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 1, req.Count)
}

func TestDecodeGenerateRequestRejectsOutOfRangeCount(t *testing.T) {
	body := `{"schema":{"type":"object"},"count":-1}`
	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(body))
	_, err := decodeGenerateRequest(r)
	assert.Error(t, err)
}

func TestJobAbortedErrorUses499(t *testing.T) {
	w := httptest.NewRecorder()
	jobAbortedError(w, "req-1", "job-1")
	assert.Equal(t, statusClientClosedRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JOB_ABORTED")
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestValidationErrorUses400(t *testing.T) {
	w := httptest.NewRecorder()
	validationError(w, "req-1", "bad schema")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
