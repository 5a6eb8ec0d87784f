package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the error taxonomy from §7: code/message plus whatever
// extras a specific failure wants to attach (e.g. completed count).
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Extras  map[string]any `json:"-"`
}

func (e ErrorBody) MarshalJSON() ([]byte, error) {
	m := map[string]any{"code": e.Code, "message": e.Message}
	for k, v := range e.Extras {
		m[k] = v
	}
	return json.Marshal(m)
}

// envelope is the error response envelope from §6: every error
// response carries the request id and a timestamp.
type envelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string, extras map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := envelope{
		Success:   false,
		Error:     ErrorBody{Code: code, Message: message, Extras: extras},
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
	_ = json.NewEncoder(w).Encode(body)
}

// Status/code pairs fixed by §7.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeUnauthor    = "UNAUTHORIZED"
	codeForbidden   = "FORBIDDEN"
	codeJobAborted  = "JOB_ABORTED"
	codeGeneration  = "GENERATION_ERROR"
	codeNotFound    = "NOT_FOUND"
)

func validationError(w http.ResponseWriter, requestID, message string) {
	writeError(w, http.StatusBadRequest, codeValidation, message, requestID, nil)
}

func unauthorizedError(w http.ResponseWriter, requestID string) {
	writeError(w, http.StatusUnauthorized, codeUnauthor, "missing or invalid API key", requestID, nil)
}

func forbiddenError(w http.ResponseWriter, requestID string) {
	writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed", requestID, nil)
}

// statusClientClosedRequest (499) has no net/http constant; it is the
// nginx-originated convention the spec's §7 reuses for cancellation.
const statusClientClosedRequest = 499

func jobAbortedError(w http.ResponseWriter, requestID, externalJobID string) {
	writeError(w, statusClientClosedRequest, codeJobAborted, "job aborted", requestID, map[string]any{"jobId": externalJobID})
}

func generationError(w http.ResponseWriter, requestID, message string) {
	writeError(w, http.StatusInternalServerError, codeGeneration, message, requestID, nil)
}

func notFoundError(w http.ResponseWriter, requestID, message string) {
	writeError(w, http.StatusNotFound, codeNotFound, message, requestID, nil)
}
