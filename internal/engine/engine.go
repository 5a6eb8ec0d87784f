// Package engine wires the schema preparer, worker pool, registry,
// dispatcher, streaming writer and abort store into the single
// explicitly-constructed object the HTTP layer is built on. Per the
// spec's design notes, these are process-wide singletons constructed
// at process init and torn down at shutdown — never hidden behind
// lazy package initialization.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"syntheticdata/internal/abortstore"
	"syntheticdata/internal/config"
	"syntheticdata/internal/dispatcher"
	"syntheticdata/internal/generator"
	"syntheticdata/internal/metrics"
	"syntheticdata/internal/registry"
	"syntheticdata/internal/schemaprep"
	"syntheticdata/internal/stream"
	"syntheticdata/internal/workerpool"
)

type Engine struct {
	Config     config.Config
	Logger     *zap.Logger
	Preparer   *schemaprep.Preparer
	Pool       *workerpool.Pool
	Registry   *registry.Registry
	Counters   *metrics.Counters
	Dispatcher *dispatcher.Dispatcher
	Stream     *stream.Writer
	AbortStore abortstore.Store
}

func New(cfg config.Config, logger *zap.Logger) *Engine {
	preparer := schemaprep.New(cfg.CacheSize, cfg.CacheTTL)
	pool := workerpool.New(cfg.MinThreads, cfg.MaxThreads, cfg.MaxQueue, cfg.IdleTimeout, logger)
	reg := registry.New()
	counters := metrics.New()
	faker := generator.BuiltinFaker{}

	var store abortstore.Store
	if cfg.AbortStoreURL != "" {
		store = abortstore.NewRedisStore(cfg.AbortStoreURL, cfg.KeyPrefix, logger)
	} else {
		store = abortstore.NoopStore{}
	}

	return &Engine{
		Config:     cfg,
		Logger:     logger,
		Preparer:   preparer,
		Pool:       pool,
		Registry:   reg,
		Counters:   counters,
		Dispatcher: dispatcher.New(pool, preparer, counters, faker, logger),
		Stream:     stream.New(pool, preparer, faker, counters, logger),
		AbortStore: store,
	}
}

// Shutdown cancels every active job, drains the pool (bounded wait),
// and closes the abort-store connection. All acquired resources are
// released on every exit path.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.Registry.CancelAll()

	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Pool.Shutdown(drainCtx); err != nil {
		e.Logger.Warn("pool drain did not finish cleanly", zap.Error(err))
	}
	return e.AbortStore.Close()
}
