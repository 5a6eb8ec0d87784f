package httpapi

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"syntheticdata/internal/dispatcher"
)

// handleValidate implements POST /validate: well-formedness check of a
// caller-supplied schema plus, when sampleData is present, a single
// validation pass against a compiled validator for that schema.
func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Schema     map[string]any `json:"schema"`
		SampleData map[string]any `json:"sampleData,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}

	if err := a.engine.Preparer.ValidateSchema(body.Schema); err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}

	if body.SampleData == nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
		return
	}

	if err := a.engine.Preparer.ValidateData(body.SampleData, body.Schema); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "errors": []string{err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// handleBenchmark implements POST /benchmark, a supplemented feature
// (SPEC_FULL.md's SUPPLEMENTED FEATURES section): it runs the same
// dispatch path as /generate once, for the requested count, against
// the caller's schema, and only reports timing, never the records
// themselves, so a caller can probe throughput without paying the
// serialization cost of a full payload.
func (a *API) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		validationError(w, newCorrelationID(), err.Error())
		return
	}
	if req.Schema == nil {
		validationError(w, newCorrelationID(), "schema is required for /benchmark")
		return
	}

	requestID, handle := a.engine.Registry.Register("", req.Count)
	defer a.engine.Registry.Unregister(requestID)
	stopWatching := watchDisconnect(r, handle)
	defer stopWatching()

	res, err := a.engine.Dispatcher.Dispatch(r.Context(), req.Schema, req.Count, dispatcher.Options{
		Fuzz: req.RandomMode, Streaming: req.Streaming,
	}, handle)
	if err != nil {
		a.respondGenerateError(w, requestID, "", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   buildStats(res),
	})
}

// handleStopJob implements POST /stop-job/{jobId}: cancels by the
// caller-supplied external job id and also best-effort marks the
// abort store, so a replica that hasn't seen this process's registry
// can still observe the stop.
func (a *API) handleStopJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ok := a.engine.Registry.CancelByExternalID(jobID)
	a.engine.AbortStore.SetStop(jobID, 5*time.Minute)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cancelled": ok})
}

// handleKill implements POST /kill/{requestId}: cancels by internal
// request id, the identifier returned to callers in error envelopes.
func (a *API) handleKill(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "requestId")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		validationError(w, newCorrelationID(), "requestId must be an integer")
		return
	}
	ok := a.engine.Registry.CancelByRequestID(id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cancelled": ok})
}

// handleKillAll implements POST /kill-all: cancels every active job.
func (a *API) handleKillAll(w http.ResponseWriter, r *http.Request) {
	n := a.engine.Registry.CancelAll()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cancelled": n})
}

// handleRequests implements GET /requests: enumerates in-flight jobs.
func (a *API) handleRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": a.engine.Registry.List(),
		"active":   a.engine.Registry.ActiveCount(),
	})
}

// handlePoolStats implements GET /pool-stats: worker pool occupancy.
func (a *API) handlePoolStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Pool.Stats())
}

// handleMetrics implements GET /metrics: the process-wide generation
// counters, the worker pool's observable state, the schema/validator
// cache occupancy, and the number of active requests.
func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"counters": a.engine.Counters.Snapshot(),
		"pool":     a.engine.Pool.Stats(),
		"cache":    a.engine.Preparer.Stats(),
		"requests": a.engine.Registry.ActiveCount(),
	})
}

// handleHealth implements GET /health: a liveness probe that also
// surfaces pool occupancy for human debugging.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"pool":   a.engine.Pool.Stats(),
	})
}

// handleReady implements GET /ready: readiness is "the pool accepted
// its minimum executor set and isn't shut down", approximated here by
// checking that at least one executor is alive.
func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	stats := a.engine.Pool.Stats()
	if stats.Active <= 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// handleLive implements GET /live: a bare process-alive check,
// distinct from /ready, matching the teacher's split of liveness vs
// readiness probes for its orchestrator.
func (a *API) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alive": true})
}

// handleGC implements POST /gc: an operator escape hatch that forces
// a garbage-collection cycle, useful after a burst of large-schema
// generation to reclaim memory ahead of the runtime's own pacing.
func (a *API) handleGC(w http.ResponseWriter, r *http.Request) {
	runtime.GC()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleClearCache implements POST /clear-cache: empties both the
// prepared-schema cache and the compiled-validator cache.
func (a *API) handleClearCache(w http.ResponseWriter, r *http.Request) {
	a.engine.Preparer.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
