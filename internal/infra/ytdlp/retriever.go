package ytdlp

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/infra/id3"
)

// AudioFormat is the codec every download is extracted to.
const AudioFormat = "mp3"

// Config represents audio retriever configuration.
type Config struct {
	Format         string        // yt-dlp format selector
	AudioQuality   string        // e.g. "192K"
	CookiesBase64  string        // base64 Netscape cookie file
	RequireCookies bool          // fail when CookiesBase64 is absent
	KeepTags       bool          // keep ID3 frames written by the source
	Timeout        time.Duration // bound on a single download
	TempDir        string        // where cookie files are staged
}

// downloadOptions is a single yt-dlp invocation.
type downloadOptions struct {
	Link           string
	OutputTemplate string
	CookiesPath    string
	Format         string
	AudioQuality   string
}

// Retriever downloads the best audio stream of a media link to a local file.
type Retriever struct {
	cfg      Config
	download func(ctx context.Context, opts downloadOptions) error
	strip    func(path string) error
}

// NewRetriever creates a new Retriever.
func NewRetriever(cfg Config) *Retriever {
	if cfg.Format == "" {
		cfg.Format = "bestaudio/best"
	}
	if cfg.AudioQuality == "" {
		cfg.AudioQuality = "192K"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Retriever{
		cfg:      cfg,
		download: runDownload,
		strip:    id3.Strip,
	}
}

// Retrieve downloads mediaLink as audio into destinationPath.
// Staged credential files are removed before returning.
func (r *Retriever) Retrieve(ctx context.Context, mediaLink, destinationPath string) error {
	cookiesPath, cleanup, err := r.stageCookies()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	opts := downloadOptions{
		Link:           mediaLink,
		OutputTemplate: strings.TrimSuffix(destinationPath, filepath.Ext(destinationPath)) + ".%(ext)s",
		CookiesPath:    cookiesPath,
		Format:         r.cfg.Format,
		AudioQuality:   r.cfg.AudioQuality,
	}
	zlog.Debug().Msgf("downloading audio: link=%s output=%s cookies=%t", mediaLink, opts.OutputTemplate, cookiesPath != "")

	if err := r.download(ctx, opts); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to download %s", mediaLink), game.ErrDownloadFailed)
	}

	if _, err := os.Stat(destinationPath); err != nil {
		return errors.Mark(errors.Newf("download produced no file at %s", destinationPath), game.ErrDownloadFailed)
	}

	if !r.cfg.KeepTags {
		if err := r.strip(destinationPath); err != nil {
			zlog.Warn().Err(err).Msgf("failed to strip tags: path=%s", destinationPath)
		}
	}

	return nil
}

// stageCookies writes the configured cookie blob to a temporary file.
// The returned cleanup removes it and is always safe to call.
func (r *Retriever) stageCookies() (string, func(), error) {
	noop := func() {}

	blob := strings.TrimSpace(r.cfg.CookiesBase64)
	if blob == "" {
		if r.cfg.RequireCookies {
			return "", noop, errors.Mark(errors.New("YTDLP_COOKIES_BASE64 is missing or empty"), game.ErrAuthRequired)
		}
		return "", noop, nil
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		if r.cfg.RequireCookies {
			return "", noop, errors.Mark(errors.Wrap(err, "YTDLP_COOKIES_BASE64 is not valid base64"), game.ErrAuthRequired)
		}
		zlog.Warn().Err(err).Msg("ignoring undecodable cookie blob")
		return "", noop, nil
	}

	f, err := os.CreateTemp(r.cfg.TempDir, "ytdlp-cookies-*.txt")
	if err != nil {
		return "", noop, errors.Wrap(err, "failed to create cookie file")
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zlog.Warn().Err(err).Msgf("failed to remove cookie file: path=%s", path)
		}
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		cleanup()
		return "", noop, errors.Wrap(errors.CombineErrors(werr, cerr), "failed to write cookie file")
	}

	return path, cleanup, nil
}

// runDownload executes yt-dlp.
func runDownload(ctx context.Context, opts downloadOptions) error {
	cmd := ytdlp.New().
		Format(opts.Format).
		ExtractAudio().
		AudioFormat(AudioFormat).
		AudioQuality(opts.AudioQuality).
		NoPlaylist().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		Output(opts.OutputTemplate)
	if opts.CookiesPath != "" {
		cmd.Cookies(opts.CookiesPath)
	}

	res, err := cmd.Run(ctx, opts.Link)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return errors.Wrapf(err, "yt-dlp: %s", truncate(res.Stderr, 800))
		}
		return err
	}
	return nil
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
