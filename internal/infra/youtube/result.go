// Package youtube provides video index search clients for YouTube.
package youtube

import (
	"fmt"

	"github.com/osa030/blindtest/internal/domain/media"
)

// WatchURL returns the watch URL for a video.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// ThumbnailURL returns the high quality default thumbnail for a video.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
}

// newResult builds a media result, deriving the thumbnail when none is given.
func newResult(videoID, title, channel, thumbnail string) media.Result {
	if thumbnail == "" {
		thumbnail = ThumbnailURL(videoID)
	}
	return media.Result{
		VideoID:   videoID,
		Link:      WatchURL(videoID),
		Title:     title,
		Thumbnail: thumbnail,
		Channel:   channel,
	}
}
