// Package session tracks multi-step conversation state. Each flow is
// scoped to a (user id, chat id) pair so that two different users, or
// the same user in two chats, never share working context. Overlapping
// invocations by the same user in the same chat follow last-write-wins
// semantics on the working context.
package session

import (
	"sync"
	"time"
)

// Stage identifies where a flow currently waits for input.
type Stage int

const (
	// StageIdle means no flow is in progress.
	StageIdle Stage = iota

	// Flag submission flow.
	StageSelectChallenge // waiting for a challenge button press
	StageAwaitFlag       // waiting for the flag text

	// Challenge authoring flow.
	StageAuthorName
	StageAuthorPoints
	StageAuthorLink
	StageAuthorFlag
)

// Draft accumulates the authoring flow's answers until commit.
type Draft struct {
	Name   string
	Points int64
	Link   string
}

// State is the conversation state of one (user, chat) pair.
type State struct {
	Stage     Stage
	Challenge string // submit flow working context
	Draft     Draft
	Touched   time.Time
}

// Key identifies a conversation.
type Key struct {
	UserID int64
	ChatID int64
}

// Store is a mutex-guarded map of conversation states. Abandoned flows
// stay until the TTL sweep removes them.
type Store struct {
	mu       sync.RWMutex
	sessions map[Key]State
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[Key]State)}
}

// Get returns the state for a conversation. Absent conversations are
// reported as an idle state.
func (s *Store) Get(k Key) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.sessions[k]; ok {
		return st
	}
	return State{Stage: StageIdle}
}

// Stage returns just the stage of a conversation.
func (s *Store) Stage(k Key) Stage {
	return s.Get(k).Stage
}

// Set stores the state for a conversation, stamping the touch time.
func (s *Store) Set(k Key, st State) {
	st.Touched = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[k] = st
}

// Clear removes a conversation's state, returning it to idle.
func (s *Store) Clear(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, k)
}

// Len returns the number of tracked conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes conversations untouched for longer than ttl and
// returns how many were removed. A ttl of 0 disables sweeping.
func (s *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, st := range s.sessions {
		if st.Touched.Before(cutoff) {
			delete(s.sessions, k)
			removed++
		}
	}
	return removed
}
