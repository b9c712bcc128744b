package cache

import (
	"errors"
	"time"
)

// LayeredCache chains caches from fastest to slowest. Each layer applies
// its own TTL; a hit in a slower layer is copied into every faster one.
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache creates a layered cache, fastest layer first
func NewLayeredCache(layers ...Cache) *LayeredCache {
	return &LayeredCache{layers: layers}
}

// Get returns the value from the first layer holding key
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, found := layer.Get(key)
		if !found {
			continue
		}
		for _, faster := range c.layers[:i] {
			_ = faster.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set writes through to every layer. Layers keep going when one fails.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	errs := make([]error, 0, len(c.layers))
	for _, layer := range c.layers {
		errs = append(errs, layer.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

// Delete removes key from every layer
func (c *LayeredCache) Delete(key string) error {
	errs := make([]error, 0, len(c.layers))
	for _, layer := range c.layers {
		errs = append(errs, layer.Delete(key))
	}
	return errors.Join(errs...)
}

// Clear empties every layer
func (c *LayeredCache) Clear() error {
	errs := make([]error, 0, len(c.layers))
	for _, layer := range c.layers {
		errs = append(errs, layer.Clear())
	}
	return errors.Join(errs...)
}
