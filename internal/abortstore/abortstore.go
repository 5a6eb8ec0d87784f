// Package abortstore is the optional, best-effort collaborator that
// persists "stop" marks across instances. A running job never polls
// it — local cancellation is authoritative within a process; the
// store only lets a future replica start pre-cancelled for the same
// external job id.
package abortstore

import (
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

// Store is the abort-signal collaborator interface consumed by the
// transport layer. A nil-safe no-op implementation is used when no
// backing URL is configured.
type Store interface {
	SetStop(externalJobID string, ttl time.Duration)
	IsStopped(externalJobID string) bool
	Close() error
}

// defaultPrefix namespaces keys (<prefix>stop:<jobId>) when no prefix
// is configured.
const defaultPrefix = "syntheticdata:"

func stopKey(prefix, jobID string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return fmt.Sprintf("%sstop:%s", prefix, jobID)
}

// RedisStore is grounded on the redigo connection-pool pattern used
// by the pack's job workers (SberMarket-Tech-work/worker.go,
// sanyfan-work/worker.go): a *redis.Pool handed out per operation,
// released back on return.
type RedisStore struct {
	pool   *redis.Pool
	prefix string
	logger *zap.Logger
}

func NewRedisStore(url string, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool := &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
	}
	return &RedisStore{pool: pool, prefix: prefix, logger: logger}
}

// SetStop is best effort: failures are logged, never propagated,
// per §4.7.
func (s *RedisStore) SetStop(externalJobID string, ttl time.Duration) {
	if externalJobID == "" {
		return
	}
	conn := s.pool.Get()
	defer conn.Close()

	seconds := int(ttl.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	if _, err := conn.Do("SETEX", stopKey(s.prefix, externalJobID), seconds, "1"); err != nil {
		s.logger.Warn("abortstore: setStop failed", zap.String("jobId", externalJobID), zap.Error(err))
	}
}

// IsStopped returns false when the store is unavailable.
func (s *RedisStore) IsStopped(externalJobID string) bool {
	if externalJobID == "" {
		return false
	}
	conn := s.pool.Get()
	defer conn.Close()

	exists, err := redis.Bool(conn.Do("EXISTS", stopKey(s.prefix, externalJobID)))
	if err != nil {
		s.logger.Warn("abortstore: isStopped failed", zap.String("jobId", externalJobID), zap.Error(err))
		return false
	}
	return exists
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}

// NoopStore is used when no abort-store URL is configured.
type NoopStore struct{}

func (NoopStore) SetStop(string, time.Duration) {}
func (NoopStore) IsStopped(string) bool          { return false }
func (NoopStore) Close() error                   { return nil }
