// Package cache stores derived account public keys between runs.
package cache

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("cache entry not found")

// Store is a string key/value store with localStorage-like semantics.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
	Close() error
}
