// Package ytdlp wraps yt-dlp for searching and downloading audio.
package ytdlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lrstanley/go-ytdlp"

	"github.com/osa030/blindtest/internal/domain/media"
	"github.com/osa030/blindtest/internal/infra/youtube"
)

// Searcher searches a video index through yt-dlp search extractors.
type Searcher struct {
	prefix string // e.g. "ytsearch", "ytmsearch"
}

// NewSearcher creates a new Searcher for the given extractor prefix.
func NewSearcher(prefix string) *Searcher {
	if prefix == "" {
		prefix = "ytsearch"
	}
	return &Searcher{prefix: prefix}
}

// Search returns up to limit video results for query, best match first.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]media.Result, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 1
	}

	res, err := ytdlp.New().
		FlatPlaylist().
		Print("%(id)s\t%(title)s\t%(channel)s").
		NoWarnings().
		IgnoreConfig().
		Run(ctx, fmt.Sprintf("%s%d:%s", s.prefix, limit, query))
	if err != nil {
		return nil, errors.Wrap(err, "yt-dlp search failed")
	}

	return parseSearchOutput(res.Stdout), nil
}

// Name returns the provider name.
func (s *Searcher) Name() string {
	return "ytdlp"
}

// parseSearchOutput parses "id\ttitle\tchannel" lines.
func parseSearchOutput(out string) []media.Result {
	var results []media.Result
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		channel := parts[2]
		if channel == "NA" {
			channel = ""
		}
		results = append(results, media.Result{
			VideoID:   parts[0],
			Link:      youtube.WatchURL(parts[0]),
			Title:     parts[1],
			Thumbnail: youtube.ThumbnailURL(parts[0]),
			Channel:   channel,
		})
	}
	return results
}
