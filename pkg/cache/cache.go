package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is a byte-oriented key/value store with per-key expiry.
type Service interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, c Service, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

// GetJSON loads key and unmarshals it into a T. A missing key returns ErrCacheMiss.
func GetJSON[T any](ctx context.Context, c Service, key string) (T, error) {
	var out T
	data, err := c.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Key joins parts into a colon separated key, e.g. Key("analysis", "AAPL").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// PrefixPattern returns a glob matching every key nested under the parts.
// PrefixPattern("analysis", "AAPL") matches "analysis:AAPL:full" but not
// "analysis:AAPLX:full".
func PrefixPattern(parts ...string) string {
	return Key(parts...) + ":*"
}
