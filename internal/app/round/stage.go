// Package round runs one blind-test round from playlist to published clip.
package round

// Stage represents the pipeline stage of a round.
type Stage int

const (
	StageIdle       Stage = iota // Not started
	StageSelecting               // Fetching the catalog and picking a track
	StageLocating                // Searching the video index
	StageRetrieving              // Downloading audio
	StageClipping                // Cutting or copying, then publishing
	StageDone                    // Clip published and history recorded
	StageFailed                  // Aborted; absorbing
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSelecting:
		return "selecting"
	case StageLocating:
		return "locating"
	case StageRetrieving:
		return "retrieving"
	case StageClipping:
		return "clipping"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Event is emitted on every stage transition of a round.
type Event struct {
	RequestID string
	Stage     Stage
	Err       error // set when Stage is StageFailed
}

// StageError is the failure of a round, tagged with the stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error returns the message of the underlying failure.
func (e *StageError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying failure.
func (e *StageError) Unwrap() error {
	return e.Err
}
