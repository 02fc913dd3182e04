package locator

import (
	"context"
	"net/http"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/osa030/blindtest/internal/infra/config"
	"github.com/osa030/blindtest/internal/infra/youtube"
	"github.com/osa030/blindtest/internal/infra/ytdlp"
)

// ScrapeSettings configures the "ytsearch" provider.
type ScrapeSettings struct{}

// DataAPISettings configures the "youtube_api" provider.
type DataAPISettings struct {
	APIKey     string `mapstructure:"api_key" validate:"required"`
	RegionCode string `mapstructure:"region_code" validate:"omitempty,len=2"`
	MusicOnly  bool   `mapstructure:"music_only"`
}

// YtdlpSettings configures the "ytdlp" provider.
type YtdlpSettings struct {
	Prefix string `mapstructure:"prefix" default:"ytsearch" validate:"oneof=ytsearch ytmsearch"`
}

// Dependencies are shared resources handed to provider constructors.
type Dependencies struct {
	HTTPClient *http.Client
	APIOptions []option.ClientOption // extra Data API options
}

// ProviderFactory builds a provider from its settings map.
type ProviderFactory func(ctx context.Context, deps Dependencies, settings map[string]any) (Provider, error)

var registry = map[string]ProviderFactory{
	"ytsearch": func(ctx context.Context, deps Dependencies, settings map[string]any) (Provider, error) {
		var s ScrapeSettings
		if err := decodeSettings(settings, &s); err != nil {
			return nil, err
		}
		return youtube.NewScrapeClient(deps.HTTPClient), nil
	},
	"youtube_api": func(ctx context.Context, deps Dependencies, settings map[string]any) (Provider, error) {
		var s DataAPISettings
		if err := decodeSettings(settings, &s); err != nil {
			return nil, err
		}
		client, err := youtube.NewDataClient(ctx, youtube.DataConfig{
			APIKey:     s.APIKey,
			RegionCode: s.RegionCode,
			MusicOnly:  s.MusicOnly,
		}, deps.APIOptions...)
		if err != nil {
			return nil, err
		}
		return client, nil
	},
	"ytdlp": func(ctx context.Context, deps Dependencies, settings map[string]any) (Provider, error) {
		var s YtdlpSettings
		if err := decodeSettings(settings, &s); err != nil {
			return nil, err
		}
		return ytdlp.NewSearcher(s.Prefix), nil
	},
}

// Types returns the registered provider type names, sorted.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewChainFromConfig creates a provider chain from configuration.
func NewChainFromConfig(ctx context.Context, cfg config.LocatorConfig, deps Dependencies) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("no locator providers configured")
	}

	var providers []ProviderWithMetadata
	for i, pcfg := range cfg.Providers {
		zlog.Debug().Msgf("creating locator provider: index=%d type=%s", i+1, pcfg.Type)

		factory, ok := registry[pcfg.Type]
		if !ok {
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}
		provider, err := factory(ctx, deps, pcfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		displayName := pcfg.DisplayName
		if displayName == "" {
			displayName = pcfg.Type
		}
		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: displayName,
		})

		zlog.Info().Msgf("registered locator provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, displayName)
	}

	return NewChain(providers, cfg.Timeout), nil
}

// decodeSettings decodes, defaults and validates a provider settings map.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
