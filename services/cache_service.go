package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheDisabled is returned by operations that need redis when
// REDIS_ENABLED is false
var ErrCacheDisabled = errors.New("cache is disabled")

const cacheMaxRetries = 3

// CacheService provides Redis caching with retry logic. With caching
// disabled every lookup misses and every write is a no-op.
type CacheService struct {
	logger *gecho.Logger
	config *structs.CacheConfig
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, cfg *structs.CacheConfig) *CacheService {
	cs := &CacheService{
		logger: logger,
		config: cfg,
	}
	if cfg.Enabled {
		cs.client = newRedisClient(cfg)
	}
	return cs
}

func newRedisClient(cfg *structs.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		MaxRetries: cfg.MaxRetries,
	})
}

func (cs *CacheService) Enabled() bool {
	return cs.client != nil
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	if cs.client != nil {
		return cs.client.Close()
	}
	return nil
}

// withRetry executes a Redis operation with exponential backoff and jitter
func (cs *CacheService) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cacheMaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cacheMaxRetries || !isRetryableCacheError(err) {
			break
		}

		backoff := min(100*time.Millisecond<<attempt, 2*time.Second)
		backoff = backoff/2 + rand.N(backoff/2+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("redis operation failed: %w", lastErr)
}

// isRetryableCacheError reports network-level failures worth another try
func isRetryableCacheError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}

	errStr := err.Error()
	for _, retryable := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"no such host",
		"network is unreachable",
	} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}

// Set sets a key with TTL
func (cs *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if cs.client == nil {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Set(ctx, key, value, ttl).Err()
	})
}

// Get returns the value for key, or "" when the key is missing
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	if cs.client == nil {
		return "", nil
	}

	var result string
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			result = ""
			return nil
		}
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// Delete removes a key
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	if cs.client == nil {
		return nil
	}
	return cs.withRetry(ctx, func() error {
		return cs.client.Del(ctx, key).Err()
	})
}

func trackingKey(referenceId string) string {
	return "tracking:" + referenceId
}

// GetTracking returns the cached tracking view, or nil on a miss
func (cs *CacheService) GetTracking(ctx context.Context, referenceId string) (*structs.TrackingView, error) {
	val, err := cs.Get(ctx, trackingKey(referenceId))
	if err != nil || val == "" {
		return nil, err
	}

	view := &structs.TrackingView{}
	if err := json.Unmarshal([]byte(val), view); err != nil {
		return nil, err
	}
	return view, nil
}

func (cs *CacheService) SetTracking(ctx context.Context, view *structs.TrackingView) error {
	if cs.client == nil {
		return nil
	}
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return cs.Set(ctx, trackingKey(view.ReferenceId), data, cs.config.TrackingTTL)
}

func (cs *CacheService) InvalidateTracking(ctx context.Context, referenceId string) {
	if err := cs.Delete(ctx, trackingKey(referenceId)); err != nil {
		cs.logger.Warn("Failed to invalidate tracking cache",
			gecho.Field("reference_id", referenceId),
			gecho.Field("error", err),
		)
	}
}

// BlacklistToken revokes a token's jti until the token would have expired
func (cs *CacheService) BlacklistToken(ctx context.Context, jti uuid.UUID, exp time.Time) error {
	if cs.client == nil {
		return ErrCacheDisabled
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return cs.Set(ctx, "blacklist:"+jti.String(), "true", ttl)
}

// IsTokenBlacklisted checks if a jti has been revoked
func (cs *CacheService) IsTokenBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error) {
	val, err := cs.Get(ctx, "blacklist:"+jti.String())
	if err != nil {
		return false, err
	}
	return val == "true", nil
}

// IncrementRateLimit atomically increments a rate limit counter, starting
// the window on the first hit
func (cs *CacheService) IncrementRateLimit(ctx context.Context, ip, endpoint string, ttl time.Duration) (int, error) {
	if cs.client == nil {
		return 0, ErrCacheDisabled
	}

	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)
	var count int64
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		count = val
		if val == 1 {
			return cs.client.Expire(ctx, key, ttl).Err()
		}
		return nil
	})
	return int(count), err
}

func (cs *CacheService) Ping(ctx context.Context) error {
	if cs.client == nil {
		return ErrCacheDisabled
	}
	return cs.client.Ping(ctx).Err()
}
