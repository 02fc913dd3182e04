// Package media provides the located media entity.
package media

// Result is the top match of a video index search for a track.
type Result struct {
	VideoID   string // Platform video ID
	Link      string // Playable watch URL
	Title     string // Video title
	Thumbnail string // Thumbnail URL
	Channel   string // Uploader channel name
}
