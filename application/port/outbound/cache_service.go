package outbound

import (
	"context"
	"time"
)

// CacheHealth reports the outcome of a backend ping. Diagnostics only, never
// used for control flow.
type CacheHealth struct {
	Available bool          `json:"available"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// CacheService is a best-effort cache-aside layer. Every failure mode
// (disconnected backend, serialization failure, timeout) degrades to a miss
// or a no-op. No method ever fails the calling operation.
type CacheService interface {
	// Get unmarshals the cached value into dest and reports whether it was
	// found. Unavailable backend, absent key and the empty-object sentinel
	// are all misses.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
	ClearPattern(ctx context.Context, pattern string) bool

	// Memoize returns the cached value for key when present, otherwise calls
	// fetch, stores the result and unmarshals it into dest. Errors from fetch
	// propagate to the caller.
	Memoize(ctx context.Context, key string, ttl time.Duration, fetch func() (interface{}, error), dest interface{}) error

	// InvalidateResource clears every entry derived from the given resource
	// type plus composite views (homepage) that embed it. Write paths must
	// call this for each resource they mutate.
	InvalidateResource(ctx context.Context, resource string) bool

	HealthCheck(ctx context.Context) CacheHealth
}
