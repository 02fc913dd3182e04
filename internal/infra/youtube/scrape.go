package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/ppalone/ytsearch"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindtest/internal/domain/media"
)

const defaultOEmbedEndpoint = "https://www.youtube.com/oembed"

// hit is a raw search hit before enrichment.
type hit struct {
	VideoID string
	Title   string
}

// ScrapeClient searches YouTube through its public web results.
// It needs no API key. Channel and thumbnail of each hit are resolved
// through the oEmbed endpoint.
type ScrapeClient struct {
	httpClient     *http.Client
	oembedEndpoint string
	search         func(ctx context.Context, query string) ([]hit, error)
}

// NewScrapeClient creates a new ScrapeClient. A nil httpClient uses the default client.
func NewScrapeClient(httpClient *http.Client) *ScrapeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	yc := ytsearch.NewClient(httpClient)

	return &ScrapeClient{
		httpClient:     httpClient,
		oembedEndpoint: defaultOEmbedEndpoint,
		search: func(ctx context.Context, query string) ([]hit, error) {
			res, err := yc.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			hits := make([]hit, 0, len(res.Results))
			for _, v := range res.Results {
				hits = append(hits, hit{VideoID: v.VideoID, Title: v.Title})
			}
			return hits, nil
		},
	}
}

// Search returns up to limit video results for query, best match first.
func (c *ScrapeClient) Search(ctx context.Context, query string, limit int) ([]media.Result, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 1
	}

	hits, err := c.search(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search youtube")
	}

	results := make([]media.Result, 0, limit)
	for _, h := range hits {
		if h.VideoID == "" {
			continue
		}
		results = append(results, c.enrich(ctx, h))
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Name returns the provider name.
func (c *ScrapeClient) Name() string {
	return "ytsearch"
}

// oembedInfo is the subset of the oEmbed document we read.
type oembedInfo struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// enrich fills channel and thumbnail from oEmbed. Lookup failures keep
// the bare hit with a derived thumbnail.
func (c *ScrapeClient) enrich(ctx context.Context, h hit) media.Result {
	info, err := c.lookupOEmbed(ctx, h.VideoID)
	if err != nil {
		zlog.Debug().Err(err).Str("video_id", h.VideoID).Msg("oembed lookup failed")
		return newResult(h.VideoID, h.Title, "", "")
	}

	title := h.Title
	if title == "" {
		title = info.Title
	}
	return newResult(h.VideoID, title, info.AuthorName, info.ThumbnailURL)
}

func (c *ScrapeClient) lookupOEmbed(ctx context.Context, videoID string) (*oembedInfo, error) {
	q := url.Values{}
	q.Set("url", WatchURL(videoID))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.oembedEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "oembed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Newf("oembed returned status %d", resp.StatusCode)
	}

	var info oembedInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "failed to decode oembed response")
	}
	return &info, nil
}
