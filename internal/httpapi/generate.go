package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"syntheticdata/internal/dispatcher"
)

const (
	minCount     = 1
	maxCount     = 10_000_000
	minBatchSize = 10
	maxBatchSize = 10_000
)

// schemaItem is one entry of the `schemas` array in a /generate body.
type schemaItem struct {
	Schema     map[string]any `json:"schema"`
	Collection string         `json:"collection,omitempty"`
	Count      int            `json:"count,omitempty"`
}

// generateRequest is the body decoded for /generate,
// /generate-stream and /generate-stream-multi.
type generateRequest struct {
	Schema       map[string]any `json:"schema,omitempty"`
	Schemas      []schemaItem   `json:"schemas,omitempty"`
	Count        int            `json:"count,omitempty"`
	ValidateData bool           `json:"validateData,omitempty"`
	RandomMode   bool           `json:"randomMode,omitempty"`
	Streaming    bool           `json:"streaming,omitempty"`
	BatchSize    int            `json:"batchSize,omitempty"`
}

func decodeGenerateRequest(r *http.Request) (generateRequest, error) {
	var req generateRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return req, errors.New("malformed JSON body")
	}
	if (req.Schema == nil) == (len(req.Schemas) == 0) {
		return req, errors.New("exactly one of schema or schemas must be present")
	}
	if req.Schema != nil {
		if req.Count == 0 {
			req.Count = 1
		}
		if req.Count < minCount || req.Count > maxCount {
			return req, errors.New("count must be between 1 and 10000000")
		}
	}
	for _, s := range req.Schemas {
		if s.Count != 0 && (s.Count < minCount || s.Count > maxCount) {
			return req, errors.New("count must be between 1 and 10000000")
		}
	}
	if req.BatchSize != 0 && (req.BatchSize < minBatchSize || req.BatchSize > maxBatchSize) {
		return req, errors.New("batchSize must be between 10 and 10000")
	}
	return req, nil
}

type recordStats struct {
	Delivered        int     `json:"delivered"`
	DurationMS       int64   `json:"durationMs"`
	RecordsPerSecond float64 `json:"recordsPerSecond"`
}

func buildStats(res dispatcher.Result) recordStats {
	rps := 0.0
	if res.Elapsed > 0 {
		rps = float64(res.Delivered) / res.Elapsed.Seconds()
	}
	return recordStats{Delivered: res.Delivered, DurationMS: res.Elapsed.Milliseconds(), RecordsPerSecond: rps}
}

// handleGenerate implements the buffered /generate endpoint,
// including the two backwards-compatible response shapes described
// in §6: a single schema without a collection tag returns
// results/valid/invalid; anything else returns a collection-tagged
// results array.
//
// The `streaming` flag on this endpoint is accepted but ignored for
// the response shape (open question in §9 of the spec) — the
// buffered endpoint never switches to chunked transfer.
func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}

	externalJobID := r.Header.Get("X-Job-Id")

	if req.Schema != nil {
		a.generateSingle(w, r, req, externalJobID)
		return
	}
	a.generateMulti(w, r, req, externalJobID)
}

func (a *API) generateSingle(w http.ResponseWriter, r *http.Request, req generateRequest, externalJobID string) {
	requestID, handle := a.engine.Registry.Register(externalJobID, req.Count)
	defer a.engine.Registry.Unregister(requestID)
	stopWatching := watchDisconnect(r, handle)
	defer stopWatching()

	res, err := a.engine.Dispatcher.Dispatch(r.Context(), req.Schema, req.Count, dispatcher.Options{
		Fuzz: req.RandomMode, Streaming: req.Streaming,
	}, handle)
	if err != nil {
		a.respondGenerateError(w, requestID, externalJobID, err)
		return
	}

	valid, invalid := res.Records, []map[string]any{}
	if req.ValidateData {
		valid, invalid = a.partitionByValidity(res.Records, req.Schema)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":               true,
		"totalRecordsGenerated": res.Delivered,
		"schemasProcessed":      1,
		"results":               res.Records,
		"valid":                 valid,
		"invalid":               invalid,
		"stats":                 buildStats(res),
	})
}

func (a *API) generateMulti(w http.ResponseWriter, r *http.Request, req generateRequest, externalJobID string) {
	requestID, handle := a.engine.Registry.Register(externalJobID, totalRequestedCount(req.Schemas))
	defer a.engine.Registry.Unregister(requestID)
	stopWatching := watchDisconnect(r, handle)
	defer stopWatching()

	type collectionResult struct {
		Collection string           `json:"collection,omitempty"`
		Data       []map[string]any `json:"data"`
		Stats      recordStats      `json:"stats"`
	}

	results := make([]collectionResult, 0, len(req.Schemas))
	total := 0
	for _, s := range req.Schemas {
		count := s.Count
		if count == 0 {
			count = 1
		}
		res, err := a.engine.Dispatcher.Dispatch(r.Context(), s.Schema, count, dispatcher.Options{
			Fuzz: req.RandomMode, Streaming: req.Streaming,
		}, handle)
		if err != nil {
			a.respondGenerateError(w, requestID, externalJobID, err)
			return
		}
		total += res.Delivered
		results = append(results, collectionResult{Collection: s.Collection, Data: res.Records, Stats: buildStats(res)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":               true,
		"totalRecordsGenerated": total,
		"schemasProcessed":      len(req.Schemas),
		"results":               results,
	})
}

func totalRequestedCount(schemas []schemaItem) int {
	total := 0
	for _, s := range schemas {
		if s.Count == 0 {
			total++
		} else {
			total += s.Count
		}
	}
	return total
}

func (a *API) respondGenerateError(w http.ResponseWriter, requestID int64, externalJobID string, err error) {
	if errors.Is(err, dispatcher.ErrCancelled) {
		jobAbortedError(w, requestIDString(requestID), externalJobID)
		return
	}
	generationError(w, requestIDString(requestID), err.Error())
}

func (a *API) partitionByValidity(records []map[string]any, schema map[string]any) (valid, invalid []map[string]any) {
	for _, rec := range records {
		if err := a.engine.Preparer.ValidateData(rec, schema); err != nil {
			invalid = append(invalid, rec)
		} else {
			valid = append(valid, rec)
		}
	}
	return valid, invalid
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
