// Package config centralizes the environment-variable reads the
// teacher scattered across cmd/server/main.go and internal/router:
// getenvInt-style helpers, collected into one typed Config.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

type Config struct {
	Addr string

	MinThreads  int
	MaxThreads  int
	IdleTimeout time.Duration
	MaxQueue    int

	CacheSize int
	CacheTTL  time.Duration

	AbortStoreURL string
	KeyPrefix     string

	APIKey    string
	Whitelist []string
	LogLevel  string
}

// Body-size limiting is owned by the external body-limit middleware
// (spec.md §1 scopes request framing out of the engine); this config
// has no knob for it.

func Load() Config {
	cpu := runtime.NumCPU()
	return Config{
		Addr:          getEnv("ADDR", ":8080"),
		MinThreads:    getEnvInt("MIN_THREADS", cpu),
		MaxThreads:    getEnvInt("MAX_THREADS", cpu*2),
		IdleTimeout:   getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		MaxQueue:      getEnvInt("MAX_QUEUE", 4096),
		CacheSize:     getEnvInt("CACHE_SIZE", 2048),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Minute),
		AbortStoreURL: getEnv("ABORT_STORE_URL", ""),
		KeyPrefix:     getEnv("ABORT_STORE_PREFIX", "syntheticdata:"),
		APIKey:        getEnv("API_KEY", ""),
		Whitelist:     splitCSV(getEnv("IP_WHITELIST", "")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
