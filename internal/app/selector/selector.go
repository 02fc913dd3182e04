// Package selector picks tracks at random while avoiding recent replays.
package selector

import (
	"math/rand/v2"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/track"
)

// Selector chooses tracks uniformly among those not served since the last reset.
// A track cannot recur until every other candidate has been served once in the
// current epoch.
type Selector struct {
	mu     sync.Mutex
	played map[string]struct{}
	intn   func(n int) int
}

// New creates a new Selector with an empty played record.
func New() *Selector {
	return &Selector{
		played: make(map[string]struct{}),
		intn:   rand.IntN,
	}
}

// Select picks a track from candidates and records it as played.
// When every candidate has already been played, the record is cleared first.
func (s *Selector) Select(candidates []track.Track) (track.Track, error) {
	if len(candidates) == 0 {
		return track.Track{}, errors.WithStack(game.ErrEmptyCatalog)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.remainingLocked(candidates)
	if len(remaining) == 0 {
		clear(s.played)
		remaining = candidates
	}

	chosen := remaining[s.intn(len(remaining))]
	s.played[chosen.ID] = struct{}{}
	return chosen, nil
}

// remainingLocked returns the candidates not yet played.
// Must be called with s.mu held.
func (s *Selector) remainingLocked(candidates []track.Track) []track.Track {
	remaining := make([]track.Track, 0, len(candidates))
	for _, t := range candidates {
		if _, ok := s.played[t.ID]; !ok {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// Played returns a snapshot of the played track IDs.
func (s *Selector) Played() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]bool, len(s.played))
	for id := range s.played {
		snapshot[id] = true
	}
	return snapshot
}

// Reset clears the played record.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.played)
}
