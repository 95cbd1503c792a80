package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetAbsentIsIdle(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	st := store.Get(k)
	assert.Equal(t, StageIdle, st.Stage)
	assert.Equal(t, StageIdle, store.Stage(k))
	assert.Equal(t, 0, store.Len())
}

func TestStore_SetGetClear(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	store.Set(k, State{Stage: StageAwaitFlag, Challenge: "web-01"})

	st := store.Get(k)
	assert.Equal(t, StageAwaitFlag, st.Stage)
	assert.Equal(t, "web-01", st.Challenge)
	assert.False(t, st.Touched.IsZero())

	store.Clear(k)
	assert.Equal(t, StageIdle, store.Stage(k))
	assert.Equal(t, 0, store.Len())
}

func TestStore_KeysAreIsolated(t *testing.T) {
	store := NewStore()

	// Same user in two chats, and two users in one chat, never share
	// working context.
	store.Set(Key{UserID: 1, ChatID: 10}, State{Stage: StageAwaitFlag, Challenge: "web-01"})
	store.Set(Key{UserID: 1, ChatID: 20}, State{Stage: StageAuthorName})
	store.Set(Key{UserID: 2, ChatID: 10}, State{Stage: StageSelectChallenge})

	assert.Equal(t, "web-01", store.Get(Key{UserID: 1, ChatID: 10}).Challenge)
	assert.Equal(t, StageAuthorName, store.Stage(Key{UserID: 1, ChatID: 20}))
	assert.Equal(t, StageSelectChallenge, store.Stage(Key{UserID: 2, ChatID: 10}))
	assert.Equal(t, 3, store.Len())
}

func TestStore_LastWriteWins(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	// Two overlapping submit invocations: the second selection
	// replaces the first, so the next flag text judges against the
	// most recent pick.
	store.Set(k, State{Stage: StageAwaitFlag, Challenge: "web-01"})
	store.Set(k, State{Stage: StageAwaitFlag, Challenge: "pwn-02"})

	st := store.Get(k)
	assert.Equal(t, StageAwaitFlag, st.Stage)
	assert.Equal(t, "pwn-02", st.Challenge)
	assert.Equal(t, 1, store.Len())
}

func TestStore_AuthoringDraftCarriesAcrossSteps(t *testing.T) {
	store := NewStore()
	k := Key{UserID: 1, ChatID: 10}

	st := State{Stage: StageAuthorName}
	store.Set(k, st)

	st = store.Get(k)
	st.Draft.Name = "web-01"
	st.Stage = StageAuthorPoints
	store.Set(k, st)

	st = store.Get(k)
	st.Draft.Points = 100
	st.Stage = StageAuthorLink
	store.Set(k, st)

	st = store.Get(k)
	assert.Equal(t, "web-01", st.Draft.Name)
	assert.Equal(t, int64(100), st.Draft.Points)
	assert.Equal(t, StageAuthorLink, st.Stage)
}

func TestStore_Sweep(t *testing.T) {
	store := NewStore()
	fresh := Key{UserID: 1, ChatID: 10}
	stale := Key{UserID: 2, ChatID: 10}

	store.Set(fresh, State{Stage: StageAwaitFlag})
	store.Set(stale, State{Stage: StageAuthorName})

	// Backdate the stale session past the TTL.
	store.mu.Lock()
	st := store.sessions[stale]
	st.Touched = time.Now().Add(-2 * time.Hour)
	store.sessions[stale] = st
	store.mu.Unlock()

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, StageAwaitFlag, store.Stage(fresh))
	assert.Equal(t, StageIdle, store.Stage(stale))

	// A zero TTL disables sweeping entirely.
	assert.Equal(t, 0, store.Sweep(0))
	assert.Equal(t, 1, store.Len())
}
