package httpapi

import (
	"net/http"

	"syntheticdata/internal/stream"
)

// handleGenerateStream implements POST /generate-stream: a single
// schema NDJSON stream. Request shape matches /generate, minus the
// `schemas` array.
func (a *API) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}
	if req.Schema == nil {
		validationError(w, newCorrelationID(), "schema is required for /generate-stream")
		return
	}

	externalJobID := r.Header.Get("X-Job-Id")
	requestID, handle := a.engine.Registry.Register(externalJobID, req.Count)
	defer a.engine.Registry.Unregister(requestID)
	stopWatching := watchDisconnect(r, handle)
	defer stopWatching()

	chunkSize := req.BatchSize
	if chunkSize == 0 {
		chunkSize = 2000
	}
	_ = a.engine.Stream.WriteSingle(r.Context(), w, req.Schema, req.Count, req.RandomMode, chunkSize, handle)
}

// handleGenerateStreamMulti implements POST /generate-stream-multi:
// multi-schema NDJSON stream, iterated sequentially.
func (a *API) handleGenerateStreamMulti(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}
	if len(req.Schemas) == 0 {
		validationError(w, newCorrelationID(), "schemas is required for /generate-stream-multi")
		return
	}

	externalJobID := r.Header.Get("X-Job-Id")
	requestID, handle := a.engine.Registry.Register(externalJobID, totalRequestedCount(req.Schemas))
	defer a.engine.Registry.Unregister(requestID)
	stopWatching := watchDisconnect(r, handle)
	defer stopWatching()

	chunkSize := req.BatchSize
	if chunkSize == 0 {
		chunkSize = 500
	}

	schemas := make([]stream.SchemaRequest, 0, len(req.Schemas))
	for _, s := range req.Schemas {
		count := s.Count
		if count == 0 {
			count = 1
		}
		schemas = append(schemas, stream.SchemaRequest{Schema: s.Schema, Collection: s.Collection, Count: count})
	}

	_ = a.engine.Stream.WriteMulti(r.Context(), w, schemas, req.RandomMode, chunkSize, handle)
}
