// Package cache stores short-lived JSON values (public catalog listings) and
// one-shot markers (processed webhook events).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// GetJSON decodes a cached value into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// Nop caches nothing and treats every SetNX as first seen.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) SetNX(context.Context, string, []byte, time.Duration) (bool, error) { return true, nil }

func (Nop) DeletePrefix(context.Context, string) error { return nil }

func (Nop) Ping(context.Context) error { return nil }
