package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

func TestDataClient_Search(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bohemian Rhapsody Queen", r.URL.Query().Get("q"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "10", r.URL.Query().Get("videoCategoryId"))

		response := `{
			"items": [
				{
					"id": {"kind": "youtube#channel", "channelId": "UC123"},
					"snippet": {"title": "Queen Official", "channelTitle": "Queen Official"}
				},
				{
					"id": {"kind": "youtube#video", "videoId": "fJ9rUzIMcZQ"},
					"snippet": {
						"title": "Queen &amp; Bohemian Rhapsody (Official Video)",
						"channelTitle": "Queen Official",
						"thumbnails": {
							"default": {"url": "https://i.ytimg.com/vi/fJ9rUzIMcZQ/default.jpg"},
							"high": {"url": "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg"}
						}
					}
				},
				{
					"id": {"kind": "youtube#video", "videoId": "noThumb"},
					"snippet": {"title": "Live", "channelTitle": "Fan"}
				}
			]
		}`
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	defer server.Close()

	client, err := NewDataClient(context.Background(), DataConfig{APIKey: "test_key", MusicOnly: true},
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "Bohemian Rhapsody Queen", 5)
	require.NoError(t, err)
	require.Len(t, results, 2, "non-video items should be skipped")

	assert.Equal(t, "fJ9rUzIMcZQ", results[0].VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=fJ9rUzIMcZQ", results[0].Link)
	assert.Equal(t, "Queen & Bohemian Rhapsody (Official Video)", results[0].Title)
	assert.Equal(t, "Queen Official", results[0].Channel)
	assert.Equal(t, "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg", results[0].Thumbnail)

	assert.Equal(t, "https://i.ytimg.com/vi/noThumb/hqdefault.jpg", results[1].Thumbnail,
		"missing thumbnails fall back to the derived URL")
}

func TestDataClient_Search_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "quotaExceeded"}}`)
	}))
	defer server.Close()

	client, err := NewDataClient(context.Background(), DataConfig{APIKey: "test_key"},
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "anything", 1)
	assert.Error(t, err)
}

func TestNewDataClient_RequiresKey(t *testing.T) {
	_, err := NewDataClient(context.Background(), DataConfig{})
	assert.Error(t, err)
}

func TestDataClient_EmptyQuery(t *testing.T) {
	client := &DataClient{}
	_, err := client.Search(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestBestThumbnail(t *testing.T) {
	tests := []struct {
		name     string
		input    *yt.ThumbnailDetails
		expected string
	}{
		{name: "nil details", input: nil, expected: ""},
		{name: "empty details", input: &yt.ThumbnailDetails{}, expected: ""},
		{
			name: "prefers maxres",
			input: &yt.ThumbnailDetails{
				Default: &yt.Thumbnail{Url: "d"},
				Maxres:  &yt.Thumbnail{Url: "m"},
			},
			expected: "m",
		},
		{
			name:     "falls back to default",
			input:    &yt.ThumbnailDetails{Default: &yt.Thumbnail{Url: "d"}},
			expected: "d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bestThumbnail(tt.input))
		})
	}
}

func TestNewResult(t *testing.T) {
	r := newResult("abc123", "Title", "Channel", "")
	assert.Equal(t, "abc123", r.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", r.Link)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/hqdefault.jpg", r.Thumbnail)

	r = newResult("abc123", "Title", "Channel", "https://example.com/t.jpg")
	assert.Equal(t, "https://example.com/t.jpg", r.Thumbnail)
}
