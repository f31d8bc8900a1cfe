package store

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable wraps failures of the underlying storage medium.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("stored value corrupt")
)

// Storage is an untyped string key-value map. Implementations must be safe
// for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Namespaced scopes every key of s under ns. The web server uses one
// namespace per browser so two browsers never see each other's identity.
// An empty ns returns s unchanged.
func Namespaced(s Storage, ns string) Storage {
	if ns == "" {
		return s
	}
	return &namespaced{inner: s, prefix: ns + ":"}
}

type namespaced struct {
	inner  Storage
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = n.prefix + k
	}
	return n.inner.Delete(ctx, scoped...)
}
