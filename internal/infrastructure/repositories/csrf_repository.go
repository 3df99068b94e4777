package repositories

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magdyelboushy-stack/platform/domain"
)

const csrfTokenBytes = 32

// CsrfRepositoryImpl implements domain.CsrfTokenRepository using Redis.
// One token per binding: issuing replaces whatever was stored before, so
// only the most recent token is honored.
type CsrfRepositoryImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCsrfRepository creates a new CSRF token repository
func NewCsrfRepository(client *redis.Client, ttl time.Duration) domain.CsrfTokenRepository {
	return &CsrfRepositoryImpl{
		client: client,
		prefix: "csrf:",
		ttl:    ttl,
	}
}

// Issue implements domain.CsrfTokenRepository
func (r *CsrfRepositoryImpl) Issue(ctx context.Context, bindingID string) (*domain.CsrfToken, error) {
	if bindingID == "" {
		return nil, fmt.Errorf("csrf: empty binding id")
	}

	raw := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate csrf token: %w", err)
	}
	value := hex.EncodeToString(raw)

	key := r.prefix + bindingID
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store csrf token: %w", err)
	}

	now := time.Now()
	return &domain.CsrfToken{
		Value:     value,
		BindingID: bindingID,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl),
	}, nil
}

// Validate implements domain.CsrfTokenRepository. Read-only; the token
// remains usable until the binding key expires.
func (r *CsrfRepositoryImpl) Validate(ctx context.Context, bindingID, token string) (bool, error) {
	if bindingID == "" || token == "" {
		return false, nil
	}

	key := r.prefix + bindingID
	stored, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read csrf token: %w", err)
	}

	// Constant-time comparison, same reason the original used hash_equals.
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}
