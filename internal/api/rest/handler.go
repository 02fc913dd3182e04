// Package rest provides the JSON HTTP endpoints used by the web front end.
package rest

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/app/round"
	"github.com/osa030/blindtest/internal/domain/history"
	"github.com/osa030/blindtest/internal/infra/config"
)

//go:embed web/index.html
var webFS embed.FS

// Player runs a round.
type Player interface {
	Play(ctx context.Context, req round.PlayRequest) (*round.PlayResult, error)
}

// HistoryLister lists served tracks, newest first.
type HistoryLister interface {
	List() []history.Entry
}

// Config holds handler configuration.
type Config struct {
	DefaultDuration int
	DefaultPlaylist string
	StaticDir       string
	Credentials     config.CredentialStatus
}

// Handler serves the front end and its JSON API.
type Handler struct {
	player  Player
	history HistoryLister
	config  Config
}

// NewHandler creates a new Handler.
func NewHandler(player Player, historyLister HistoryLister, cfg Config) *Handler {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 3
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	return &Handler{
		player:  player,
		history: historyLister,
		config:  cfg,
	}
}

// Register adds the routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /play", h.play)
	mux.HandleFunc("GET /history", h.listHistory)
	mux.HandleFunc("GET /envcheck", h.envCheck)
	mux.Handle("GET /static/", noStore(http.StripPrefix("/static/", filesOnly(http.FileServer(http.Dir(h.config.StaticDir))))))
}

type playResponse struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename"`
	AudioURL  string `json:"audio_url"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type historyItem struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	Timestamp string `json:"timestamp"`
}

type envCheckResponse struct {
	SpotifyClientID     bool `json:"SPOTIPY_CLIENT_ID"`
	SpotifyClientSecret bool `json:"SPOTIPY_CLIENT_SECRET"`
	DownloadCookies     bool `json:"YTDLP_COOKIES_BASE64"`
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "front end unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// play runs a round. Every failure, including bad parameters, is reported
// as HTTP 500 with success=false and the failure message.
func (h *Handler) play(w http.ResponseWriter, r *http.Request) {
	req, err := h.parsePlayRequest(r)
	if err != nil {
		zlog.Warn().Msgf("invalid play request: query=%s error=%v", r.URL.RawQuery, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.player.Play(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, playResponse{
		Success:   true,
		Filename:  res.Filename,
		AudioURL:  res.AudioURL,
		Title:     res.Title,
		Artist:    res.Artist,
		Thumbnail: res.Thumbnail,
	})
}

// parsePlayRequest reads duration, full and playlist from the query string.
func (h *Handler) parsePlayRequest(r *http.Request) (round.PlayRequest, error) {
	q := r.URL.Query()
	req := round.PlayRequest{
		PlaylistRef:     h.config.DefaultPlaylist,
		DurationSeconds: h.config.DefaultDuration,
	}

	if v := q.Get("duration"); v != "" {
		d, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return req, errors.Newf("invalid duration %q", v)
		}
		req.DurationSeconds = d
	}
	req.Full = strings.EqualFold(q.Get("full"), "true")
	if v := strings.TrimSpace(q.Get("playlist")); v != "" {
		req.PlaylistRef = v
	}
	return req, nil
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.history.List()
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			Title:     e.Title,
			Artist:    e.Artist,
			Thumbnail: e.Thumbnail,
			Timestamp: e.FormattedTimestamp(),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) envCheck(w http.ResponseWriter, r *http.Request) {
	c := h.config.Credentials
	writeJSON(w, http.StatusOK, envCheckResponse{
		SpotifyClientID:     c.SpotifyClientID,
		SpotifyClientSecret: c.SpotifyClientSecret,
		DownloadCookies:     c.DownloadCookies,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("failed to write response")
	}
}

// noStore disables client caching; the clip is replaced every round.
// filesOnly hides directory listings and dot files, which include clips
// still being published.
func filesOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "" || strings.HasSuffix(p, "/") {
			http.NotFound(w, r)
			return
		}
		for _, seg := range strings.Split(p, "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for access logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// LogRequests logs every request at debug level.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zlog.Debug().Msgf("http request: method=%s path=%s status=%d elapsed=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
