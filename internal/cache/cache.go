// Package cache provides a TTL-bounded per-identifier cache of conclusive
// query results, saving repeat callers a full channel round trip. Retention is
// deliberately short: this is a cache, not query history.
package cache

import (
	"context"
	"errors"

	"creditline/internal/domain"
)

// ErrNotFound reports a cache miss.
var ErrNotFound = errors.New("cache: result not found")

// Store caches canonical results keyed by identifier.
type Store interface {
	// Find returns the cached result for the identifier, or ErrNotFound.
	Find(ctx context.Context, dni domain.DNI) (*domain.QueryResult, error)
	// Save stores a result for the TTL configured at construction.
	Save(ctx context.Context, result domain.QueryResult) error
}

// Cacheable reports whether a result is worth retaining. Only conclusive
// outcomes are cached; a transient ERROR or a NOT_FOUND that a later channel
// ordering might resolve must be re-queried.
func Cacheable(result domain.QueryResult) bool {
	return result.State == domain.StateSuccess || result.State == domain.StateNoCredit
}
