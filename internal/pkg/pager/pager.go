// Package pager implements snapshot pagination: a result set is
// captured once when a command is issued, then re-sliced across
// prev/next button presses without re-querying. The ranking a user
// pages through is therefore frozen until the command is re-issued.
package pager

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Key identifies the session a snapshot belongs to.
type Key struct {
	UserID int64
	ChatID int64
}

// Snapshot is a frozen, pre-formatted result set.
type Snapshot struct {
	Title    string
	Lines    []string
	PageSize int
	TakenAt  time.Time
}

// PageCount returns the number of pages in the snapshot, at least 1.
func (s *Snapshot) PageCount() int {
	if s.PageSize <= 0 || len(s.Lines) == 0 {
		return 1
	}
	return (len(s.Lines) + s.PageSize - 1) / s.PageSize
}

// Clamp normalizes a requested page number into the valid range.
func (s *Snapshot) Clamp(page int) int {
	if page < 0 {
		return 0
	}
	if last := s.PageCount() - 1; page > last {
		return last
	}
	return page
}

// Render formats one page: title, the page's slice of lines and a
// page-position footer when there is more than one page.
func (s *Snapshot) Render(page int) string {
	page = s.Clamp(page)

	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteString("\n")

	if len(s.Lines) == 0 {
		b.WriteString("(empty)")
		return b.String()
	}

	start := page * s.PageSize
	end := start + s.PageSize
	if s.PageSize <= 0 || end > len(s.Lines) {
		end = len(s.Lines)
	}
	if s.PageSize <= 0 {
		start = 0
	}

	for _, line := range s.Lines[start:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if s.PageCount() > 1 {
		b.WriteString(fmt.Sprintf("— page %d/%d —", page+1, s.PageCount()))
	}
	return strings.TrimRight(b.String(), "\n")
}

// HasPrev reports whether a previous page exists.
func (s *Snapshot) HasPrev(page int) bool { return s.Clamp(page) > 0 }

// HasNext reports whether a next page exists.
func (s *Snapshot) HasNext(page int) bool { return s.Clamp(page) < s.PageCount()-1 }

// Store keeps at most one snapshot per (session, domain). Issuing the
// same report command again replaces the previous snapshot.
type Store struct {
	mu    sync.Mutex
	snaps map[Key]map[string]*Snapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{snaps: make(map[Key]map[string]*Snapshot)}
}

// Put captures a snapshot for the given session and domain.
func (st *Store) Put(k Key, domain string, s *Snapshot) {
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.snaps[k] == nil {
		st.snaps[k] = make(map[string]*Snapshot)
	}
	st.snaps[k][domain] = s
}

// Get returns the snapshot for the given session and domain, if any.
func (st *Store) Get(k Key, domain string) (*Snapshot, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.snaps[k][domain]
	return s, ok
}

// Drop removes all snapshots of a session.
func (st *Store) Drop(k Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.snaps, k)
}

// Sweep removes snapshots older than ttl and returns how many were
// dropped. A ttl of 0 disables sweeping.
func (st *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	dropped := 0
	for k, domains := range st.snaps {
		for domain, s := range domains {
			if s.TakenAt.Before(cutoff) {
				delete(domains, domain)
				dropped++
			}
		}
		if len(domains) == 0 {
			delete(st.snaps, k)
		}
	}
	return dropped
}
