package youtube

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripFunc answers HTTP requests in-process.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// oembedStub serves canned oEmbed documents keyed by watch URL.
type oembedStub struct {
	mu        sync.Mutex
	documents map[string]string
	requested []string
}

func (s *oembedStub) client() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		watch := r.URL.Query().Get("url")
		s.requested = append(s.requested, watch)
		if r.URL.Host != "www.youtube.com" || r.URL.Path != "/oembed" {
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}
		doc, ok := s.documents[watch]
		if !ok {
			return jsonResponse(http.StatusUnauthorized, `Unauthorized`), nil
		}
		return jsonResponse(http.StatusOK, doc), nil
	})}
}

func newStubbedScrapeClient(stub *oembedStub, hits []hit, searchErr error) *ScrapeClient {
	c := NewScrapeClient(stub.client())
	c.search = func(ctx context.Context, query string) ([]hit, error) {
		return hits, searchErr
	}
	return c
}

func TestScrapeClient_Search(t *testing.T) {
	stub := &oembedStub{documents: map[string]string{
		WatchURL("fJ9rUzIMcZQ"): `{
			"title": "Queen - Bohemian Rhapsody (Official Video Remastered)",
			"author_name": "Queen Official",
			"thumbnail_url": "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg"
		}`,
		WatchURL("second1"): `{"title": "Cover", "author_name": "Someone", "thumbnail_url": "https://i.ytimg.com/vi/second1/hqdefault.jpg"}`,
	}}
	hits := []hit{
		{VideoID: "fJ9rUzIMcZQ", Title: "Queen - Bohemian Rhapsody (Official Video Remastered)"},
		{VideoID: "", Title: "Playlist entry without video"},
		{VideoID: "second1", Title: "Cover"},
	}
	client := newStubbedScrapeClient(stub, hits, nil)

	results, err := client.Search(context.Background(), "Bohemian Rhapsody Queen", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "fJ9rUzIMcZQ", top.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=fJ9rUzIMcZQ", top.Link)
	assert.Equal(t, "Queen - Bohemian Rhapsody (Official Video Remastered)", top.Title)
	assert.Equal(t, "Queen Official", top.Channel)
	assert.Equal(t, "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg", top.Thumbnail)

	assert.Equal(t, "second1", results[1].VideoID)
	assert.Equal(t, "Someone", results[1].Channel)
}

func TestScrapeClient_Search_LimitStopsLookups(t *testing.T) {
	stub := &oembedStub{documents: map[string]string{
		WatchURL("a"): `{"title": "A", "author_name": "Chan A", "thumbnail_url": "https://example.com/a.jpg"}`,
		WatchURL("b"): `{"title": "B", "author_name": "Chan B", "thumbnail_url": "https://example.com/b.jpg"}`,
	}}
	client := newStubbedScrapeClient(stub, []hit{{VideoID: "a", Title: "A"}, {VideoID: "b", Title: "B"}}, nil)

	results, err := client.Search(context.Background(), "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].VideoID)
	assert.Equal(t, "Chan A", results[0].Channel)
	assert.Equal(t, []string{WatchURL("a")}, stub.requested)
}

func TestScrapeClient_Search_OEmbedFailureKeepsHit(t *testing.T) {
	stub := &oembedStub{documents: map[string]string{}}
	client := newStubbedScrapeClient(stub, []hit{{VideoID: "private1", Title: "Restricted"}}, nil)

	results, err := client.Search(context.Background(), "query", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Restricted", results[0].Title)
	assert.Empty(t, results[0].Channel)
	assert.Equal(t, ThumbnailURL("private1"), results[0].Thumbnail)
}

func TestScrapeClient_Search_Errors(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		hits      []hit
		searchErr error
		wantErr   bool
		wantLen   int
	}{
		{name: "empty query", query: "", wantErr: true},
		{name: "search failure", query: "q", searchErr: errors.New("blocked"), wantErr: true},
		{name: "no hits", query: "q", hits: nil, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newStubbedScrapeClient(&oembedStub{}, tt.hits, tt.searchErr)
			results, err := client.Search(context.Background(), tt.query, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, results, tt.wantLen)
		})
	}
}

func TestScrapeClient_Name(t *testing.T) {
	assert.Equal(t, "ytsearch", NewScrapeClient(nil).Name())
}
