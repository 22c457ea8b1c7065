package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache: miss")

// CacheInterface is a key/value store without expiry. Entries live until
// they are deleted.
type CacheInterface interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes the cached value of key into dst.
func GetJSON(ctx context.Context, c CacheInterface, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, c CacheInterface, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw)
}

// Remember returns the cached value of key, or calls load, caches its result
// and returns it. Cache failures fall through to load; a failed write is
// reported through onError when it is non-nil, but the loaded value is still
// returned.
func Remember[T any](ctx context.Context, c CacheInterface, key string, load func(context.Context) (T, error), onError func(key string, err error)) (T, error) {
	var cached T
	err := GetJSON(ctx, c, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) && onError != nil {
		onError(key, err)
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := SetJSON(ctx, c, key, value); err != nil && onError != nil {
		onError(key, err)
	}
	return value, nil
}

type versioned[T any] struct {
	Version int64 `json:"version"`
	Value   T     `json:"value"`
}

// RememberVersion is Remember for values that carry the version they were
// loaded at. A cached value is served only when its version equals version,
// so a slow reader that writes back a snapshot taken before a newer write
// cannot hide that write. version must be read before load runs.
func RememberVersion[T any](ctx context.Context, c CacheInterface, key string, version int64, load func(context.Context) (T, error), onError func(key string, err error)) (T, error) {
	var cached versioned[T]
	err := GetJSON(ctx, c, key, &cached)
	if err == nil && cached.Version == version {
		return cached.Value, nil
	}
	if err != nil && !errors.Is(err, ErrMiss) && onError != nil {
		onError(key, err)
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := SetJSON(ctx, c, key, versioned[T]{Version: version, Value: value}); err != nil && onError != nil {
		onError(key, err)
	}
	return value, nil
}
