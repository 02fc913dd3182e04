// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a catalog track entity.
// Contains only information retrieved from the catalog API.
type Track struct {
	ID          string        // Catalog Track ID
	Name        string        // Track title
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	URL         string        // Catalog URL
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// SearchQuery returns the free-text query used to find the track on a video index.
func (t *Track) SearchQuery() string {
	return strings.TrimSpace(t.Name + " " + t.PrimaryArtist())
}
