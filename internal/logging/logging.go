// Package logging builds the single *zap.Logger constructed at
// process init and threaded through the pool, dispatcher, streaming
// writer and abort-store client — never a package-level global.
package logging

import "go.uber.org/zap"

func New(level string) *zap.Logger {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
