// Package ffmpeg wraps the ffmpeg and ffprobe command line tools.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Config represents ffmpeg tool configuration.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Bitrate     string
}

// Tool runs ffmpeg and ffprobe.
type Tool struct {
	ffmpegPath  string
	ffprobePath string
	bitrate     string
}

// New creates a new Tool.
func New(cfg Config) *Tool {
	t := &Tool{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		bitrate:     cfg.Bitrate,
	}
	if t.ffmpegPath == "" {
		t.ffmpegPath = "ffmpeg"
	}
	if t.ffprobePath == "" {
		t.ffprobePath = "ffprobe"
	}
	if t.bitrate == "" {
		t.bitrate = "192k"
	}
	return t
}

// probeOutput is the subset of `ffprobe -print_format json` we read.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the playable length of an audio file.
func (t *Tool) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-print_format", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, errors.Wrapf(err, "ffprobe failed on %s: %s", path, short(string(exitErr.Stderr), 800))
		}
		return 0, errors.Wrapf(err, "ffprobe failed on %s", path)
	}
	return parseProbeOutput(out)
}

// parseProbeOutput extracts the format duration from ffprobe JSON output.
func parseProbeOutput(out []byte) (time.Duration, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, errors.Wrap(err, "failed to parse ffprobe output")
	}
	if probe.Format.Duration == "" || probe.Format.Duration == "N/A" {
		return 0, errors.New("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", probe.Format.Duration)
	}
	if secs < 0 {
		return 0, errors.Newf("negative duration %q", probe.Format.Duration)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Cut writes length of src starting at start to dst as MP3.
func (t *Tool) Cut(ctx context.Context, src, dst string, start, length time.Duration) error {
	args := t.cutArgs(src, dst, start, length)
	zlog.Debug().Msgf("executing ffmpeg: %s %s", t.ffmpegPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "ffmpeg failed: %s", short(string(out), 800))
	}
	return nil
}

// cutArgs builds the ffmpeg argument list for Cut.
func (t *Tool) cutArgs(src, dst string, start, length time.Duration) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", seconds(start),
		"-t", seconds(length),
		"-i", src,
		"-vn",
		"-map_metadata", "-1",
		"-acodec", "libmp3lame",
		"-b:a", t.bitrate,
		dst,
	}
}

// seconds formats d with millisecond precision.
func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func short(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
