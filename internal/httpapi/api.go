// Package httpapi is the thin transport adapter described in
// SPEC_FULL.md §4.8: request decoding, dispatch into the engine, and
// response/stream encoding. It owns no generation logic.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"syntheticdata/internal/engine"
	"syntheticdata/internal/workerpool"
)

// API holds the one engine this transport adapts.
type API struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *API {
	return &API{engine: e}
}

func newCorrelationID() string {
	return uuid.New().String()
}

// Router builds the chi mux covering every path in spec.md §6.
// Auth/whitelist middleware is the external collaborator the spec
// explicitly scopes out (§1); authMiddleware below is a minimal
// stand-in so the binary is runnable standalone, gated entirely by
// whether an API key is configured.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.authMiddleware)

	r.Post("/generate", a.handleGenerate)
	r.Post("/generate-stream", a.handleGenerateStream)
	r.Post("/generate-stream-multi", a.handleGenerateStreamMulti)
	r.Post("/validate", a.handleValidate)
	r.Post("/benchmark", a.handleBenchmark)
	r.Post("/stop-job/{jobId}", a.handleStopJob)
	r.Post("/kill/{requestId}", a.handleKill)
	r.Post("/kill-all", a.handleKillAll)
	r.Get("/requests", a.handleRequests)
	r.Get("/pool-stats", a.handlePoolStats)
	r.Get("/metrics", a.handleMetrics)
	r.Get("/health", a.handleHealth)
	r.Get("/ready", a.handleReady)
	r.Get("/live", a.handleLive)
	r.Post("/gc", a.handleGC)
	r.Post("/clear-cache", a.handleClearCache)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFoundError(w, newCorrelationID(), "no such route")
	})

	return r
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.engine.Config.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != a.engine.Config.APIKey {
			unauthorizedError(w, newCorrelationID())
			return
		}
		if len(a.engine.Config.Whitelist) > 0 && !whitelisted(r.RemoteAddr, a.engine.Config.Whitelist) {
			forbiddenError(w, newCorrelationID())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func whitelisted(remoteAddr string, whitelist []string) bool {
	for _, ip := range whitelist {
		if ip == remoteAddr {
			return true
		}
	}
	return false
}

// watchDisconnect cancels handle the moment the request's context is
// done (client disconnect or server-side timeout), satisfying §5's
// "client disconnect cancels" guarantee even on the inline generation
// path, which otherwise never looks at the request context. The
// returned func stops the watcher once the handler returns normally.
func watchDisconnect(r *http.Request, handle *workerpool.CancelHandle) func() {
	stop := make(chan struct{})
	go func() {
		select {
		case <-r.Context().Done():
			handle.Cancel()
		case <-stop:
		case <-handle.Done():
		}
	}()
	return func() { close(stop) }
}
