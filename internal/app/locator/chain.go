package locator

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/media"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain tries providers in order and returns the first top result.
type Chain struct {
	providers []ProviderWithMetadata
	timeout   time.Duration
}

// NewChain creates a new provider chain. A non-positive timeout means 15s.
func NewChain(providers []ProviderWithMetadata, timeout time.Duration) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chain{
		providers: providers,
		timeout:   timeout,
	}
}

// Locate returns the top result of the first provider that has one.
// Only the top result is considered; there is no relevance check.
func (c *Chain) Locate(ctx context.Context, query string) (*media.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Mark(errors.New("empty search query"), game.ErrNoMediaFound)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	failed := 0
	for i, pm := range c.providers {
		zlog.Debug().Msgf("trying locator provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		results, err := pm.Provider.Search(ctx, query, 1)
		if err != nil {
			zlog.Warn().Msgf("locator provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(results) == 0 || results[0].Link == "" {
			zlog.Debug().Msgf("locator provider returned no results: provider=%s", pm.DisplayName)
			continue
		}

		top := results[0]
		zlog.Info().Msgf("located media: provider=%s title=%q link=%s", pm.DisplayName, top.Title, top.Link)
		return &top, nil
	}

	if lastErr != nil && failed == len(c.providers) {
		return nil, errors.Mark(errors.Wrapf(lastErr, "media search failed for %q", query), game.ErrNoMediaFound)
	}
	if lastErr != nil && ctx.Err() != nil {
		return nil, errors.Mark(errors.Wrapf(lastErr, "media search timed out for %q", query), game.ErrNoMediaFound)
	}
	return nil, errors.Mark(errors.Newf("no video found for %q", query), game.ErrNoMediaFound)
}

// Providers returns the configured providers in order.
func (c *Chain) Providers() []ProviderWithMetadata {
	return append([]ProviderWithMetadata(nil), c.providers...)
}
