// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Game      GameConfig      `yaml:"game"`
	Locator   LocatorConfig   `yaml:"locator"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Clipper   ClipperConfig   `yaml:"clipper"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":5000"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are checked when the catalog is first used, not at startup.
type SpotifyConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Market       string        `yaml:"market" validate:"omitempty,len=2"`
	Timeout      time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
}

// GameConfig represents round defaults.
type GameConfig struct {
	DefaultPlaylist string `yaml:"default_playlist" default:"https://open.spotify.com/playlist/4YHLZ2DTFg6vGKbJMFsRPG" validate:"required"`
	DefaultDuration int    `yaml:"default_duration" default:"3" validate:"gte=1,lte=600"`
	HistorySize     int    `yaml:"history_size" default:"10" validate:"gte=1,lte=1000"`
}

// LocatorConfig represents media locator configuration.
type LocatorConfig struct {
	Timeout   time.Duration    `yaml:"timeout" default:"15s" validate:"gt=0"`
	Providers []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig represents a single locator provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// RetrieverConfig represents audio download configuration.
type RetrieverConfig struct {
	Format         string        `yaml:"format" default:"bestaudio/best"`
	AudioQuality   string        `yaml:"audio_quality" default:"192K"`
	CookiesBase64  string        `yaml:"cookies_base64"`
	RequireCookies bool          `yaml:"require_cookies"`
	KeepTags       bool          `yaml:"keep_tags"`
	Timeout        time.Duration `yaml:"timeout" default:"120s" validate:"gt=0"`
}

// ClipperConfig represents ffmpeg configuration.
type ClipperConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path" default:"ffmpeg"`
	FFprobePath string `yaml:"ffprobe_path" default:"ffprobe"`
	Bitrate     string `yaml:"bitrate" default:"192k"`
}

// StorageConfig represents file locations.
type StorageConfig struct {
	StaticDir string `yaml:"static_dir" default:"static"`
	ClipName  string `yaml:"clip_name" default:"extrait.mp3"`
	WorkDir   string `yaml:"work_dir"` // empty means os.TempDir()
}

// CredentialStatus reports which credentials are configured.
type CredentialStatus struct {
	SpotifyClientID     bool
	SpotifyClientSecret bool
	DownloadCookies     bool
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
// A missing file is not an error: environment and defaults are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config file")
			}
		case os.IsNotExist(err):
			// env + defaults only
		default:
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// SetDefaults fills unset fields with their defaults.
func (c *Config) SetDefaults() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if len(c.Locator.Providers) == 0 {
		c.Locator.Providers = []ProviderConfig{{Type: "ytsearch", DisplayName: "YouTube search"}}
	}
	for i := range c.Locator.Providers {
		if c.Locator.Providers[i].DisplayName == "" {
			c.Locator.Providers[i].DisplayName = c.Locator.Providers[i].Type
		}
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
// Both the SPOTIPY_ and SPOTIFY_ spellings are accepted.
func (c *Config) overrideFromEnv() {
	if v := firstEnv("SPOTIPY_CLIENT_ID", "SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := firstEnv("SPOTIPY_CLIENT_SECRET", "SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("YTDLP_COOKIES_BASE64"); v != "" {
		c.Retriever.CookiesBase64 = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		for i := range c.Locator.Providers {
			if c.Locator.Providers[i].Type == "youtube_api" {
				if c.Locator.Providers[i].Settings == nil {
					c.Locator.Providers[i].Settings = map[string]any{}
				}
				c.Locator.Providers[i].Settings["api_key"] = v
			}
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// clipGrace covers the ffmpeg cut and publish after a download.
const clipGrace = 30 * time.Second

// RoundTimeout is the longest a single round can run: catalog fetch, media
// lookup and download at their configured limits, plus clipping.
func (c *Config) RoundTimeout() time.Duration {
	return c.Spotify.Timeout + c.Locator.Timeout + c.Retriever.Timeout + clipGrace
}

// Credentials reports which credentials are present without exposing them.
func (c *Config) Credentials() CredentialStatus {
	return CredentialStatus{
		SpotifyClientID:     c.Spotify.ClientID != "",
		SpotifyClientSecret: c.Spotify.ClientSecret != "",
		DownloadCookies:     strings.TrimSpace(c.Retriever.CookiesBase64) != "",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	return nil
}

// validateStorage checks that the clip name is a plain file name.
func (c *Config) validateStorage() error {
	name := c.Storage.ClipName
	if name == "" {
		return errors.New("storage.clip_name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return errors.Newf("storage.clip_name (%s) must be a file name, not a path", name)
	}
	if c.Storage.StaticDir == "" {
		return errors.New("storage.static_dir is required")
	}
	return nil
}
