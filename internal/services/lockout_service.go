package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magdyelboushy-stack/platform/domain"
)

// LockoutConfig holds lockout tracker policy knobs.
type LockoutConfig struct {
	// MaxAttempts is the consecutive-failure threshold that trips a lock.
	MaxAttempts int
	// FailureWindow bounds how long a failure streak is remembered.
	FailureWindow time.Duration
	// LockDuration is how long a tripped lock holds.
	LockDuration time.Duration
}

// LockoutTrackerImpl implements domain.LockoutTracker using Redis keyed
// counters. INCR is atomic per key, so concurrent failed logins for the
// same account serialize their increments without lost updates. Lock
// release is lazy: the lock key simply expires.
type LockoutTrackerImpl struct {
	redisClient *redis.Client
	config      LockoutConfig
}

// NewLockoutTracker creates a new Redis-based lockout tracker
func NewLockoutTracker(redisClient *redis.Client, config LockoutConfig) domain.LockoutTracker {
	return &LockoutTrackerImpl{
		redisClient: redisClient,
		config:      config,
	}
}

func lockoutKeys(key string) (failKey, lockKey string) {
	k := strings.ToLower(strings.TrimSpace(key))
	return "login:fail:" + k, "login:lock:" + k
}

// CheckLocked implements domain.LockoutTracker. Side-effect free read.
func (t *LockoutTrackerImpl) CheckLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	_, lockKey := lockoutKeys(key)

	ttl, err := t.redisClient.TTL(ctx, lockKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check lock TTL: %w", err)
	}

	// TTL <= 0 means the lock key is absent or already expired.
	if ttl <= 0 {
		return false, 0, nil
	}

	return true, ttl, nil
}

// RecordFailure implements domain.LockoutTracker
func (t *LockoutTrackerImpl) RecordFailure(ctx context.Context, key string) (bool, time.Duration, error) {
	failKey, lockKey := lockoutKeys(key)

	attempts, err := t.redisClient.Incr(ctx, failKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment failure counter: %w", err)
	}

	// First failure of a streak starts the counting window.
	if attempts == 1 {
		if err := t.redisClient.Expire(ctx, failKey, t.config.FailureWindow).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set failure window: %w", err)
		}
	}

	if attempts < int64(t.config.MaxAttempts) {
		return false, 0, nil
	}

	// Threshold reached: arm the lock. The counter is left in place for
	// audit and expires with its window.
	if err := t.redisClient.Set(ctx, lockKey, attempts, t.config.LockDuration).Err(); err != nil {
		return false, 0, fmt.Errorf("failed to arm lock: %w", err)
	}

	return true, t.config.LockDuration, nil
}

// RecordSuccess implements domain.LockoutTracker. Clears the failure
// streak; an already-armed lock stays until it expires.
func (t *LockoutTrackerImpl) RecordSuccess(ctx context.Context, key string) error {
	failKey, _ := lockoutKeys(key)
	return t.redisClient.Del(ctx, failKey).Err()
}
