// Package history provides the played-track history entry.
package history

import "time"

// TimestampLayout is the wall-clock layout exposed to clients.
const TimestampLayout = time.TimeOnly

// Entry is one served track in the session history.
type Entry struct {
	Title     string
	Artist    string
	Thumbnail string
	Timestamp time.Time // Local time the track was served
}

// FormattedTimestamp returns the timestamp in client layout.
func (e Entry) FormattedTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}
