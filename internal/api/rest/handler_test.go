package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphistory "github.com/osa030/blindtest/internal/app/history"
	"github.com/osa030/blindtest/internal/app/locator"
	"github.com/osa030/blindtest/internal/app/round"
	"github.com/osa030/blindtest/internal/app/selector"
	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/history"
	"github.com/osa030/blindtest/internal/domain/media"
	"github.com/osa030/blindtest/internal/domain/track"
	"github.com/osa030/blindtest/internal/infra/config"
)

// mockPlayer records requests and returns a fixed outcome.
type mockPlayer struct {
	requests []round.PlayRequest
	result   *round.PlayResult
	err      error
}

func (m *mockPlayer) Play(ctx context.Context, req round.PlayRequest) (*round.PlayResult, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func newTestServer(t *testing.T, player Player, hist HistoryLister, cfg Config) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(player, hist, cfg).Register(mux)
	server := httptest.NewServer(LogRequests(mux))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestHandler_Play(t *testing.T) {
	player := &mockPlayer{result: &round.PlayResult{
		Filename:  "static/extrait.mp3",
		AudioURL:  "/static/extrait.mp3",
		Title:     "Song 1",
		Artist:    "Artist 1",
		Thumbnail: "https://i.ytimg.com/vi/abc/hqdefault.jpg",
	}}
	server := newTestServer(t, player, apphistory.NewLog(10), Config{
		DefaultDuration: 3,
		DefaultPlaylist: "https://open.spotify.com/playlist/default",
	})

	var body map[string]any
	resp := getJSON(t, server.URL+"/play", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{
		"success":   true,
		"filename":  "static/extrait.mp3",
		"audio_url": "/static/extrait.mp3",
		"title":     "Song 1",
		"artist":    "Artist 1",
		"thumbnail": "https://i.ytimg.com/vi/abc/hqdefault.jpg",
	}, body)

	require.Len(t, player.requests, 1)
	assert.Equal(t, round.PlayRequest{
		PlaylistRef:     "https://open.spotify.com/playlist/default",
		DurationSeconds: 3,
		Full:            false,
	}, player.requests[0])
}

func TestHandler_Play_QueryParameters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected round.PlayRequest
	}{
		{
			name:     "duration and playlist",
			query:    "?duration=5&playlist=https://open.spotify.com/playlist/xyz",
			expected: round.PlayRequest{PlaylistRef: "https://open.spotify.com/playlist/xyz", DurationSeconds: 5},
		},
		{
			name:     "full mode",
			query:    "?full=true",
			expected: round.PlayRequest{PlaylistRef: "default", DurationSeconds: 3, Full: true},
		},
		{
			name:     "full is case insensitive",
			query:    "?full=TRUE&duration=10",
			expected: round.PlayRequest{PlaylistRef: "default", DurationSeconds: 10, Full: true},
		},
		{
			name:     "anything else is not full",
			query:    "?full=1",
			expected: round.PlayRequest{PlaylistRef: "default", DurationSeconds: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := &mockPlayer{result: &round.PlayResult{}}
			server := newTestServer(t, player, apphistory.NewLog(10), Config{DefaultDuration: 3, DefaultPlaylist: "default"})

			var body map[string]any
			resp := getJSON(t, server.URL+"/play"+tt.query, &body)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			require.Len(t, player.requests, 1)
			assert.Equal(t, tt.expected, player.requests[0])
		})
	}
}

func TestHandler_Play_Failures(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		err     error
		wantMsg string
		calls   int
	}{
		{
			name:    "round failure",
			err:     &round.StageError{Stage: round.StageSelecting, Err: errors.WithStack(game.ErrEmptyCatalog)},
			wantMsg: "playlist is empty or not accessible",
			calls:   1,
		},
		{
			name:    "unexpected failure",
			err:     errors.New("disk full"),
			wantMsg: "disk full",
			calls:   1,
		},
		{
			name:    "invalid duration",
			query:   "?duration=abc",
			wantMsg: `invalid duration "abc"`,
			calls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := &mockPlayer{err: tt.err}
			server := newTestServer(t, player, apphistory.NewLog(10), Config{})

			var body map[string]any
			resp := getJSON(t, server.URL+"/play"+tt.query, &body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, map[string]any{"success": false, "error": tt.wantMsg}, body)
			assert.Len(t, player.requests, tt.calls)
		})
	}
}

// emptyProvider is a search backend with no results.
type emptyProvider struct{}

func (emptyProvider) Search(ctx context.Context, query string, limit int) ([]media.Result, error) {
	return nil, nil
}

func (emptyProvider) Name() string { return "empty" }

type staticCatalog []track.Track

func (c staticCatalog) FetchTracks(ctx context.Context, playlistRef string) ([]track.Track, error) {
	return c, nil
}

type unusedRetriever struct{ t *testing.T }

func (u unusedRetriever) Retrieve(ctx context.Context, mediaLink, destinationPath string) error {
	u.t.Error("retriever must not run when no media was found")
	return nil
}

type unusedClipper struct{ t *testing.T }

func (u unusedClipper) Clip(ctx context.Context, src, dst string, durationSeconds int) error {
	u.t.Error("clipper must not run when no media was found")
	return nil
}

func (u unusedClipper) Full(ctx context.Context, src, dst string) error {
	u.t.Error("clipper must not run when no media was found")
	return nil
}

func TestHandler_Play_NoSearchResults(t *testing.T) {
	hist := apphistory.NewLog(10)
	orch := round.NewOrchestrator(round.Dependencies{
		Catalog:   staticCatalog{{ID: "t1", Name: "Song 1", Artists: []string{"Artist 1"}}},
		Selector:  selector.New(),
		Locator:   locator.NewChain([]locator.ProviderWithMetadata{{Provider: emptyProvider{}, DisplayName: "empty"}}, time.Second),
		Retriever: unusedRetriever{t},
		Clipper:   unusedClipper{t},
		History:   hist,
	}, round.Config{WorkDir: t.TempDir(), StaticDir: t.TempDir()})

	server := newTestServer(t, orch, hist, Config{DefaultPlaylist: "p"})

	var body map[string]any
	resp := getJSON(t, server.URL+"/play?duration=5", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "no video found")
	assert.Equal(t, 0, hist.Len())
}

func TestHandler_History(t *testing.T) {
	hist := apphistory.NewLog(10)
	server := newTestServer(t, &mockPlayer{}, hist, Config{})

	// Empty history is an empty array, not null
	resp, err := http.Get(server.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw))

	for i, title := range []string{"Song 1", "Song 2"} {
		hist.Record(history.Entry{
			Title:     title,
			Artist:    "Artist",
			Thumbnail: "thumb",
			Timestamp: time.Date(2024, 1, 1, 9, 30, i, 0, time.Local),
		})
	}

	var items []map[string]string
	getJSON(t, server.URL+"/history", &items)
	assert.Equal(t, []map[string]string{
		{"title": "Song 2", "artist": "Artist", "thumbnail": "thumb", "timestamp": "09:30:01"},
		{"title": "Song 1", "artist": "Artist", "thumbnail": "thumb", "timestamp": "09:30:00"},
	}, items)
}

func TestHandler_EnvCheck(t *testing.T) {
	server := newTestServer(t, &mockPlayer{}, apphistory.NewLog(10), Config{
		Credentials: config.CredentialStatus{SpotifyClientID: true, SpotifyClientSecret: false, DownloadCookies: true},
	})

	var body map[string]bool
	getJSON(t, server.URL+"/envcheck", &body)
	assert.Equal(t, map[string]bool{
		"SPOTIPY_CLIENT_ID":     true,
		"SPOTIPY_CLIENT_SECRET": false,
		"YTDLP_COOKIES_BASE64":  true,
	}, body)
}

func TestHandler_IndexAndStatic(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "extrait.mp3"), []byte("clip"), 0644))
	server := newTestServer(t, &mockPlayer{}, apphistory.NewLog(10), Config{StaticDir: staticDir})

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	resp, err = http.Get(server.URL + "/static/extrait.mp3")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp, err = http.Get(server.URL + "/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_StaticHidesListingsAndPartialClips(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "extrait.mp3"), []byte("clip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, ".extrait.mp3.123.tmp"), []byte("partial"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(staticDir, "covers"), 0755))
	server := newTestServer(t, &mockPlayer{}, apphistory.NewLog(10), Config{StaticDir: staticDir})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "published clip", path: "/static/extrait.mp3", wantStatus: http.StatusOK},
		{name: "static root listing", path: "/static/", wantStatus: http.StatusNotFound},
		{name: "subdirectory listing", path: "/static/covers/", wantStatus: http.StatusNotFound},
		{name: "in-flight temp file", path: "/static/.extrait.mp3.123.tmp", wantStatus: http.StatusNotFound},
		{name: "missing file", path: "/static/other.mp3", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotContains(t, string(body), ".extrait.mp3.123.tmp")
		})
	}
}
