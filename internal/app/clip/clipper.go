// Package clip cuts fixed-length excerpts out of downloaded audio.
package clip

import (
	"context"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/domain/game"
)

// Engine probes and cuts audio files.
type Engine interface {
	// Duration returns the playable length of the file at path.
	Duration(ctx context.Context, path string) (time.Duration, error)
	// Cut writes length of src starting at start to dst.
	Cut(ctx context.Context, src, dst string, start, length time.Duration) error
}

// Clipper produces the playable excerpt for a round.
type Clipper struct {
	engine Engine
	intn   func(n int) int
}

// New creates a new Clipper.
func New(engine Engine) *Clipper {
	return &Clipper{
		engine: engine,
		intn:   rand.IntN,
	}
}

// Clip writes exactly durationSeconds of src to dst, starting at a random
// offset in [0, total-duration] chosen at millisecond granularity.
func (c *Clipper) Clip(ctx context.Context, src, dst string, durationSeconds int) error {
	if durationSeconds <= 0 {
		return errors.Newf("invalid clip duration: %d seconds", durationSeconds)
	}
	length := time.Duration(durationSeconds) * time.Second

	total, err := c.engine.Duration(ctx, src)
	if err != nil {
		return errors.Wrap(err, "failed to read audio duration")
	}
	if total < length {
		return errors.Mark(
			errors.Newf("audio is %.1fs long, shorter than the requested %ds", total.Seconds(), durationSeconds),
			game.ErrClipTooShort,
		)
	}

	maxStartMs := int((total - length) / time.Millisecond)
	start := time.Duration(c.intn(maxStartMs+1)) * time.Millisecond

	zlog.Debug().Msgf("cutting clip: src=%s total=%s start=%s length=%s", src, total, start, length)
	if err := c.engine.Cut(ctx, src, dst, start, length); err != nil {
		return errors.Wrap(err, "failed to cut clip")
	}
	return nil
}

// Full copies src to dst unchanged.
func (c *Clipper) Full(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open source audio")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "failed to create output audio")
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "failed to copy audio")
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "failed to close output audio")
	}
	return nil
}
