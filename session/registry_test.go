package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/team"
)

func newTestSession(id string, created time.Time) *Session {
	return newSession(id, "topic "+id, team.New(id), testDefs(), 0, created)
}

func TestRegistry_InsertGetRemove(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("a", time.Now())

	require.NoError(t, r.Insert(s))
	require.ErrorIs(t, r.Insert(newTestSession("a", time.Now())), ErrSessionExists)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Same(t, s, removed)

	_, ok = r.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SnapshotOrder(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Insert(newTestSession("c", base.Add(time.Minute))))
	require.NoError(t, r.Insert(newTestSession("b", base)))
	require.NoError(t, r.Insert(newTestSession("a", base)))

	infos := r.Snapshot()
	require.Len(t, infos, 3)
	assert.Equal(t, "a", infos[0].ID)
	assert.Equal(t, "b", infos[1].ID)
	assert.Equal(t, "c", infos[2].ID)
	assert.Equal(t, StateSelecting, infos[0].State)
}

func TestRegistry_LockSerializesSameID(t *testing.T) {
	r := NewRegistry()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Lock("same")
			defer unlock()

			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 0, r.locks.size())
}

func TestRegistry_LockDifferentIDsDoNotBlock(t *testing.T) {
	r := NewRegistry()

	unlockA := r.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := r.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestSession_Info(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSession("x", created)

	s.startDiscussing([]string{"Alice"})
	s.setRound(2)
	s.addMessages(3)
	s.addMessages(1)
	s.touch(created.Add(time.Hour))

	info := s.Info()
	assert.Equal(t, StateDiscussing, info.State)
	assert.Equal(t, []string{"Alice"}, info.Participants)
	assert.Equal(t, 2, info.RoundCount)
	assert.Equal(t, 4, info.MessageCount)
	assert.Equal(t, created, info.CreatedAt)
	assert.Equal(t, time.Hour, s.idleSince(created.Add(2*time.Hour)))

	// snapshots do not alias session state
	info.Participants[0] = "changed"
	assert.Equal(t, []string{"Alice"}, s.Info().Participants)
}
