// Package locator finds a playable media source for a track.
package locator

import (
	"context"

	"github.com/osa030/blindtest/internal/domain/media"
)

// Locator resolves a free-text query to the best matching media result.
type Locator interface {
	Locate(ctx context.Context, query string) (*media.Result, error)
}

// Provider is the interface for video index search backends.
type Provider interface {
	// Search returns up to limit results, best match first.
	Search(ctx context.Context, query string, limit int) ([]media.Result, error)

	// Name returns the provider name (used in config).
	Name() string
}
