package round

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/history"
	"github.com/osa030/blindtest/internal/domain/media"
	"github.com/osa030/blindtest/internal/domain/track"
)

const (
	originalName = "original.mp3"
	clipName     = "clip.mp3"
)

// Catalog lists the tracks of a playlist.
type Catalog interface {
	FetchTracks(ctx context.Context, playlistRef string) ([]track.Track, error)
}

// Selector picks the next track.
type Selector interface {
	Select(candidates []track.Track) (track.Track, error)
}

// Locator finds a media source for a query.
type Locator interface {
	Locate(ctx context.Context, query string) (*media.Result, error)
}

// Retriever downloads audio from a media link.
type Retriever interface {
	Retrieve(ctx context.Context, mediaLink, destinationPath string) error
}

// Clipper produces the served audio from a download.
type Clipper interface {
	Clip(ctx context.Context, src, dst string, durationSeconds int) error
	Full(ctx context.Context, src, dst string) error
}

// History records served tracks.
type History interface {
	Record(entry history.Entry)
}

// Dependencies are the components a round is built from.
type Dependencies struct {
	Catalog   Catalog
	Selector  Selector
	Locator   Locator
	Retriever Retriever
	Clipper   Clipper
	History   History
}

// Config holds orchestrator configuration.
type Config struct {
	DefaultPlaylist string
	WorkDir         string // parent of request working directories, empty means os.TempDir()
	StaticDir       string // directory served to clients
	ClipName        string // file name of the published clip
	URLPrefix       string // URL path StaticDir is served under
	OnEvent         func(Event)
	Now             func() time.Time
}

// PlayRequest describes one round.
type PlayRequest struct {
	PlaylistRef     string
	DurationSeconds int
	Full            bool
}

// PlayResult is a successfully published round.
type PlayResult struct {
	RequestID string
	Filename  string // published path, relative to the working directory of the server
	AudioURL  string
	Title     string
	Artist    string
	Thumbnail string
	Track     track.Track
	Media     media.Result
}

// Orchestrator runs rounds end to end.
type Orchestrator struct {
	deps   Dependencies
	config Config
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(deps Dependencies, config Config) *Orchestrator {
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	if config.StaticDir == "" {
		config.StaticDir = "static"
	}
	if config.ClipName == "" {
		config.ClipName = "extrait.mp3"
	}
	if config.URLPrefix == "" {
		config.URLPrefix = "/static"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Orchestrator{deps: deps, config: config}
}

// ClipPath returns the path the clip is published at.
func (o *Orchestrator) ClipPath() string {
	return filepath.Join(o.config.StaticDir, o.config.ClipName)
}

// run tracks the stage of a single round.
type run struct {
	id    string
	stage Stage
	emit  func(Event)
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	zlog.Debug().Msgf("round stage: request_id=%s stage=%s", r.id, stage)
	if r.emit != nil {
		r.emit(Event{RequestID: r.id, Stage: stage})
	}
}

func (r *run) fail(err error) error {
	failed := r.stage
	zlog.Error().Msgf("round failed: request_id=%s stage=%s code=%s error=%+v", r.id, failed, game.Code(err), err)
	r.stage = StageFailed
	if r.emit != nil {
		r.emit(Event{RequestID: r.id, Stage: StageFailed, Err: err})
	}
	return &StageError{Stage: failed, Err: err}
}

// Play runs Selecting, Locating, Retrieving and Clipping in sequence, publishes
// the clip and records it in the history. Any failure aborts the round; the
// previously published clip is left in place and the history is unchanged.
func (o *Orchestrator) Play(ctx context.Context, req PlayRequest) (*PlayResult, error) {
	r := &run{id: uuid.New().String(), stage: StageIdle, emit: o.config.OnEvent}

	playlistRef := req.PlaylistRef
	if playlistRef == "" {
		playlistRef = o.config.DefaultPlaylist
	}
	zlog.Info().Msgf("round started: request_id=%s playlist=%s duration=%d full=%t",
		r.id, playlistRef, req.DurationSeconds, req.Full)

	// Selecting
	r.enter(StageSelecting)
	candidates, err := o.deps.Catalog.FetchTracks(ctx, playlistRef)
	if err != nil {
		return nil, r.fail(err)
	}
	chosen, err := o.deps.Selector.Select(candidates)
	if err != nil {
		return nil, r.fail(err)
	}
	zlog.Info().Msgf("track selected: request_id=%s track_id=%s title=%q artist=%q candidates=%d",
		r.id, chosen.ID, chosen.Name, chosen.PrimaryArtist(), len(candidates))

	// Locating
	r.enter(StageLocating)
	found, err := o.deps.Locator.Locate(ctx, chosen.SearchQuery())
	if err != nil {
		return nil, r.fail(err)
	}

	// Retrieving
	r.enter(StageRetrieving)
	workDir := filepath.Join(o.config.WorkDir, "blindtest-"+r.id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, r.fail(errors.Wrap(err, "failed to create working directory"))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			zlog.Warn().Err(err).Msgf("failed to remove working directory: path=%s", workDir)
		}
	}()

	originalPath := filepath.Join(workDir, originalName)
	if err := o.deps.Retriever.Retrieve(ctx, found.Link, originalPath); err != nil {
		return nil, r.fail(err)
	}

	// Clipping
	r.enter(StageClipping)
	clipPath := filepath.Join(workDir, clipName)
	if req.Full {
		err = o.deps.Clipper.Full(ctx, originalPath, clipPath)
	} else {
		err = o.deps.Clipper.Clip(ctx, originalPath, clipPath, req.DurationSeconds)
	}
	if err != nil {
		return nil, r.fail(err)
	}
	if err := publish(clipPath, o.ClipPath()); err != nil {
		return nil, r.fail(err)
	}

	o.deps.History.Record(history.Entry{
		Title:     chosen.Name,
		Artist:    chosen.PrimaryArtist(),
		Thumbnail: found.Thumbnail,
		Timestamp: o.config.Now(),
	})
	r.enter(StageDone)

	zlog.Info().Msgf("round done: request_id=%s title=%q media=%s", r.id, chosen.Name, found.Link)

	return &PlayResult{
		RequestID: r.id,
		Filename:  filepath.ToSlash(o.ClipPath()),
		AudioURL:  path.Join(o.config.URLPrefix, o.config.ClipName),
		Title:     chosen.Name,
		Artist:    chosen.PrimaryArtist(),
		Thumbnail: found.Thumbnail,
		Track:     chosen,
		Media:     *found,
	}, nil
}
