package youtube

import (
	"context"
	"html"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/osa030/blindtest/internal/domain/media"
)

// musicCategoryID is the YouTube video category for music.
const musicCategoryID = "10"

// DataClient searches YouTube through the Data API v3.
type DataClient struct {
	service    *youtube.Service
	regionCode string
	musicOnly  bool
}

// DataConfig represents Data API client configuration.
type DataConfig struct {
	APIKey     string
	RegionCode string
	MusicOnly  bool
}

// NewDataClient creates a new Data API client.
func NewDataClient(ctx context.Context, cfg DataConfig, opts ...option.ClientOption) (*DataClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube service")
	}

	return &DataClient{
		service:    service,
		regionCode: cfg.RegionCode,
		musicOnly:  cfg.MusicOnly,
	}, nil
}

// Search returns up to limit video results for query, best match first.
func (c *DataClient) Search(ctx context.Context, query string, limit int) ([]media.Result, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	call := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx)
	if c.regionCode != "" {
		call = call.RegionCode(c.regionCode)
	}
	if c.musicOnly {
		call = call.VideoCategoryId(musicCategoryID)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, errors.Wrap(err, "failed to search youtube data api")
	}

	results := make([]media.Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		// Snippet text comes back HTML-escaped
		results = append(results, newResult(
			item.Id.VideoId,
			html.UnescapeString(item.Snippet.Title),
			html.UnescapeString(item.Snippet.ChannelTitle),
			bestThumbnail(item.Snippet.Thumbnails),
		))
	}
	return results, nil
}

// Name returns the provider name.
func (c *DataClient) Name() string {
	return "youtube_api"
}

// bestThumbnail returns the largest available thumbnail URL.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
