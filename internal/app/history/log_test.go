package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/blindtest/internal/domain/history"
)

func entry(i int) history.Entry {
	return history.Entry{
		Title:     fmt.Sprintf("Song %d", i),
		Artist:    fmt.Sprintf("Artist %d", i),
		Thumbnail: fmt.Sprintf("https://i.ytimg.com/vi/%d/hqdefault.jpg", i),
		Timestamp: time.Date(2024, 1, 1, 12, 0, i, 0, time.Local),
	}
}

func TestLog_RecordNewestFirst(t *testing.T) {
	l := NewLog(10)
	for i := 1; i <= 3; i++ {
		l.Record(entry(i))
	}

	entries := l.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "Song 3", entries[0].Title)
	assert.Equal(t, "Song 2", entries[1].Title)
	assert.Equal(t, "Song 1", entries[2].Title)
}

func TestLog_Capacity(t *testing.T) {
	tests := []struct {
		name     string
		records  int
		expected int
	}{
		{name: "below capacity", records: 4, expected: 4},
		{name: "exactly capacity", records: 10, expected: 10},
		{name: "one over capacity", records: 11, expected: 10},
		{name: "far over capacity", records: 25, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLog(DefaultCapacity)
			for i := 1; i <= tt.records; i++ {
				l.Record(entry(i))
			}

			entries := l.List()
			require.Len(t, entries, tt.expected)
			for j, e := range entries {
				assert.Equal(t, entry(tt.records-j), e, "entry %d should be record #%d", j, tt.records-j)
			}
		})
	}
}

func TestLog_DefaultCapacity(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 15; i++ {
		l.Record(entry(i))
	}
	assert.Equal(t, DefaultCapacity, l.Len())
}

func TestLog_ListIsSnapshot(t *testing.T) {
	l := NewLog(10)
	l.Record(entry(1))

	entries := l.List()
	entries[0].Title = "mutated"

	assert.Equal(t, "Song 1", l.List()[0].Title)
}

func TestLog_ConcurrentRecord(t *testing.T) {
	l := NewLog(10)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(entry(i))
			_ = l.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, l.Len())
}
