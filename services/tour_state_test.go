package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTourStateInitiallyInactive(t *testing.T) {
	s := NewTourState()
	snap := s.Snapshot()
	assert.False(t, snap.IsActive)
	assert.Nil(t, snap.TourID)
	assert.NotNil(t, snap.PlayedPOIIDs)
	assert.Empty(t, snap.PlayedPOIIDs)
}

func TestTourStateStartSnapshot(t *testing.T) {
	s := NewTourState()
	s.Start("t1")

	snap := s.Snapshot()
	assert.True(t, snap.IsActive)
	require.NotNil(t, snap.TourID)
	assert.Equal(t, "t1", *snap.TourID)
	assert.Equal(t, []string{}, snap.PlayedPOIIDs)

	s.MarkPlayed("p2")
	s.MarkPlayed("p1")
	s.MarkPlayed("p2")
	assert.Equal(t, []string{"p2", "p1"}, s.Snapshot().PlayedPOIIDs)
	assert.True(t, s.IsPlayed("p1"))
	assert.False(t, s.IsPlayed("p3"))
}

func TestTourStateRestartResetsHistory(t *testing.T) {
	s := NewTourState()
	s.Start("t1")
	s.MarkPlayed("p1")

	// never ended
	s.Start("t2")
	snap := s.Snapshot()
	assert.Equal(t, "t2", *snap.TourID)
	assert.Empty(t, snap.PlayedPOIIDs)
	assert.False(t, s.IsPlayed("p1"))
}

func TestTourStateEndRetainsHistory(t *testing.T) {
	s := NewTourState()
	s.Start("t1")
	s.MarkPlayed("p1")

	assert.True(t, s.End())
	assert.False(t, s.End(), "second end is a no-op")

	snap := s.Snapshot()
	assert.False(t, snap.IsActive)
	assert.Equal(t, "t1", *snap.TourID)
	assert.Equal(t, []string{"p1"}, snap.PlayedPOIIDs)

	s.MarkPlayed("p2")
	assert.Equal(t, []string{"p1"}, s.Snapshot().PlayedPOIIDs, "history only grows while active")
}

func TestTourStateSnapshotIsACopy(t *testing.T) {
	s := NewTourState()
	s.Start("t1")
	s.MarkPlayed("p1")

	snap := s.Snapshot()
	snap.PlayedPOIIDs[0] = "tampered"
	*snap.TourID = "tampered"

	again := s.Snapshot()
	assert.Equal(t, []string{"p1"}, again.PlayedPOIIDs)
	assert.Equal(t, "t1", *again.TourID)
}

func TestTourStateClaimRequiresSameTour(t *testing.T) {
	s := NewTourState()
	assert.False(t, s.Claim("", "p1"), "inactive")

	s.Start("t1")
	assert.True(t, s.Claim("t1", "p1"))
	assert.False(t, s.Claim("t1", "p1"), "already played")

	s.Start("t2")
	assert.False(t, s.Claim("t1", "p2"), "stale tour id")
	assert.True(t, s.Claim("t2", "p1"))

	s.End()
	assert.False(t, s.Claim("t2", "p3"))
}

func TestTourStateConcurrentClaimsTriggerOnce(t *testing.T) {
	s := NewTourState()
	s.Start("t1")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Claim("t1", "p1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, []string{"p1"}, s.Snapshot().PlayedPOIIDs)
}
