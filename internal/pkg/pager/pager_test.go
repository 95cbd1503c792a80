package pager

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i)
	}
	return out
}

func TestSnapshot_PageCount(t *testing.T) {
	tests := []struct {
		name     string
		lines    int
		pageSize int
		want     int
	}{
		{"empty", 0, 10, 1},
		{"under one page", 5, 10, 1},
		{"exactly one page", 10, 10, 1},
		{"one over", 11, 10, 2},
		{"several pages", 45, 10, 5},
		{"zero page size", 45, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Snapshot{Lines: lines(tt.lines), PageSize: tt.pageSize}
			assert.Equal(t, tt.want, s.PageCount())
		})
	}
}

func TestSnapshot_Clamp(t *testing.T) {
	s := &Snapshot{Lines: lines(25), PageSize: 10} // 3 pages

	assert.Equal(t, 0, s.Clamp(-5))
	assert.Equal(t, 0, s.Clamp(0))
	assert.Equal(t, 2, s.Clamp(2))
	assert.Equal(t, 2, s.Clamp(99))
}

func TestSnapshot_Render(t *testing.T) {
	s := &Snapshot{Title: "🏅 Leaderboard 🏅", Lines: lines(25), PageSize: 10}

	first := s.Render(0)
	assert.Contains(t, first, "🏅 Leaderboard 🏅")
	assert.Contains(t, first, "line 0")
	assert.Contains(t, first, "line 9")
	assert.NotContains(t, first, "line 10")
	assert.Contains(t, first, "page 1/3")

	last := s.Render(2)
	assert.Contains(t, last, "line 24")
	assert.NotContains(t, last, "line 19")
	assert.Contains(t, last, "page 3/3")

	// Single page renders without the position footer
	single := (&Snapshot{Title: "T", Lines: lines(3), PageSize: 10}).Render(0)
	assert.NotContains(t, single, "page")
}

func TestSnapshot_Navigation(t *testing.T) {
	s := &Snapshot{Lines: lines(25), PageSize: 10}

	assert.False(t, s.HasPrev(0))
	assert.True(t, s.HasNext(0))
	assert.True(t, s.HasPrev(1))
	assert.True(t, s.HasNext(1))
	assert.True(t, s.HasPrev(2))
	assert.False(t, s.HasNext(2))
}

// TestSnapshotRenderCoversAllLinesProperty checks that paging through
// a snapshot shows every captured line exactly once, whatever the
// page size.
func TestSnapshotRenderCoversAllLinesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 100).Draw(t, "n")
		pageSize := rapid.IntRange(1, 30).Draw(t, "pageSize")
		s := &Snapshot{Title: "T", Lines: lines(n), PageSize: pageSize}

		var seen []string
		for page := 0; page < s.PageCount(); page++ {
			body := s.Render(page)
			for _, line := range strings.Split(body, "\n") {
				if strings.HasPrefix(line, "line ") {
					seen = append(seen, line)
				}
			}
		}

		if len(seen) != n {
			t.Fatalf("expected %d lines across pages, saw %d", n, len(seen))
		}
		for i, line := range seen {
			if line != fmt.Sprintf("line %d", i) {
				t.Fatalf("line %d out of order: %q", i, line)
			}
		}
	})
}

func TestStore_PutGetDrop(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	_, ok := store.Get(k, "lb")
	assert.False(t, ok)

	store.Put(k, "lb", &Snapshot{Lines: lines(5), PageSize: 10})
	store.Put(k, "users", &Snapshot{Lines: lines(3), PageSize: 10})

	snap, ok := store.Get(k, "lb")
	require.True(t, ok)
	assert.Len(t, snap.Lines, 5)
	assert.False(t, snap.TakenAt.IsZero())

	// Re-issuing the command replaces the frozen snapshot
	store.Put(k, "lb", &Snapshot{Lines: lines(7), PageSize: 10})
	snap, ok = store.Get(k, "lb")
	require.True(t, ok)
	assert.Len(t, snap.Lines, 7)

	// Different sessions never see each other's snapshots
	_, ok = store.Get(Key{UserID: 2, ChatID: 10}, "lb")
	assert.False(t, ok)

	store.Drop(k)
	_, ok = store.Get(k, "lb")
	assert.False(t, ok)
	_, ok = store.Get(k, "users")
	assert.False(t, ok)
}

func TestStore_Sweep(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	store.Put(k, "lb", &Snapshot{Lines: lines(5), PageSize: 10})
	store.Put(k, "users", &Snapshot{
		Lines:    lines(3),
		PageSize: 10,
		TakenAt:  time.Now().Add(-2 * time.Hour),
	})

	dropped := store.Sweep(time.Hour)
	assert.Equal(t, 1, dropped)

	_, ok := store.Get(k, "lb")
	assert.True(t, ok)
	_, ok = store.Get(k, "users")
	assert.False(t, ok)

	assert.Equal(t, 0, store.Sweep(0))
}
