package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"syntheticdata/internal/config"
	"syntheticdata/internal/engine"
	"syntheticdata/internal/httpapi"
	"syntheticdata/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	eng := engine.New(cfg, logger)
	api := httpapi.New(eng)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.Router(),
		ReadTimeout:  0, // streaming endpoints hold the connection open
		WriteTimeout: 0,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := eng.Shutdown(ctx); err != nil {
			logger.Warn("engine shutdown did not finish cleanly", zap.Error(err))
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("http server shutdown did not finish cleanly", zap.Error(err))
		}
	}()

	logger.Info("synthetic data service starting", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen failed", zap.Error(err))
	}
}
