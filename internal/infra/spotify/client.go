// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/track"
)

// pageLimit is the Spotify API maximum per playlist page.
const pageLimit = 100

// Client is a Spotify API client.
type Client struct {
	client  *spotify.Client
	market  string
	timeout time.Duration
	group   singleflight.Group
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
	Timeout      time.Duration
}

// New creates a new Spotify client using the client-credentials flow.
// Missing credentials are reported when the catalog is first used, so the
// server can still start and answer /envcheck.
func New(ctx context.Context, cfg Config) *Client {
	// App-only token source, refreshed automatically
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return newClient(creds.Client(ctx), cfg)
}

// newClient builds a Client on top of an authenticated HTTP client.
func newClient(httpClient *http.Client, cfg Config, opts ...spotify.ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		client:  spotify.New(httpClient, opts...),
		market:  cfg.Market,
		timeout: timeout,
	}
}

// FetchTracks retrieves all playable tracks from a playlist.
// playlistRef may be a playlist URL, URI, or raw ID.
func (c *Client) FetchTracks(ctx context.Context, playlistRef string) ([]track.Track, error) {
	playlistID := extractPlaylistID(playlistRef)
	if playlistID == "" {
		return nil, errors.Mark(errors.New("invalid playlist URL"), game.ErrCatalogUnavailable)
	}

	// Coalesce concurrent fetches of the same playlist. The shared fetch is
	// detached from any single caller so one cancellation cannot fail the others.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(playlistID, func() (any, error) {
		return c.fetchAll(fetchCtx, playlistID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, errors.Mark(
			errors.Wrapf(ctx.Err(), "playlist fetch abandoned (playlist %s)", playlistID),
			game.ErrCatalogUnavailable,
		)
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	tracks := res.Val.([]track.Track)
	if len(tracks) == 0 {
		return nil, errors.WithStack(game.ErrEmptyCatalog)
	}

	// Callers get their own copy of the shared result
	result := make([]track.Track, len(tracks))
	copy(result, tracks)
	return result, nil
}

// fetchAll pages through the playlist items.
func (c *Client) fetchAll(ctx context.Context, playlistID string) ([]track.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []spotify.RequestOption{spotify.Limit(pageLimit)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	var tracks []track.Track
	offset := 0

	for {
		page, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			append(opts, spotify.Offset(offset))...,
		)
		if err != nil {
			return nil, errors.Mark(
				errors.Wrapf(err, "failed to get playlist items (playlist %s)", playlistID),
				game.ErrCatalogUnavailable,
			)
		}

		for _, item := range page.Items {
			// Only concrete tracks (exclude episodes and removed items)
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, c.convertTrack(item.Track.Track))
			}
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	return track.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: albumArt,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		URL:         GetTrackURL(string(t.ID)),
	}
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:playlist:PLAYLIST_ID
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// Drop query parameters and trailing slashes, then keep the last path segment
	id := strings.Split(input, "?")[0]
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}
