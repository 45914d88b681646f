package services

import (
	"sync"

	"tour-server/models"
)

// TourState is the single tour session of the process. Every method holds
// the same lock, so readers see either the old or the new session, never a
// mix.
type TourState struct {
	mu       sync.RWMutex
	active   bool
	tourID   string
	hasTour  bool
	played   map[string]struct{}
	playedIn []string // trigger order
}

func NewTourState() *TourState {
	return &TourState{played: make(map[string]struct{})}
}

// Start replaces the session wholesale: active, new id, empty history.
func (s *TourState) Start(tourID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.tourID = tourID
	s.hasTour = true
	s.played = make(map[string]struct{})
	s.playedIn = nil
}

// End deactivates the tour. The id and history stay readable until the next
// Start. Ending an inactive tour does nothing.
func (s *TourState) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	return true
}

// MarkPlayed records poiID in the current session. Repeated ids are ignored,
// as is any call while the tour is inactive.
func (s *TourState) MarkPlayed(poiID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.markLocked(poiID)
}

// Claim marks poiID played only if tourID is still the active session and the
// POI has not played in it yet. It reports whether the caller now owns the
// trigger.
func (s *TourState) Claim(tourID, poiID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.tourID != tourID {
		return false
	}
	return s.markLocked(poiID)
}

func (s *TourState) markLocked(poiID string) bool {
	if _, ok := s.played[poiID]; ok {
		return false
	}
	s.played[poiID] = struct{}{}
	s.playedIn = append(s.playedIn, poiID)
	return true
}

func (s *TourState) IsPlayed(poiID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.played[poiID]
	return ok
}

// Current returns the active tour id. ok is false while inactive.
func (s *TourState) Current() (tourID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tourID, s.active
}

// IsCurrent reports whether tourID is the active session.
func (s *TourState) IsCurrent(tourID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active && s.tourID == tourID
}

func (s *TourState) Snapshot() models.TourSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.TourSnapshot{
		IsActive:     s.active,
		PlayedPOIIDs: make([]string, len(s.playedIn)),
	}
	copy(snap.PlayedPOIIDs, s.playedIn)
	if s.hasTour {
		id := s.tourID
		snap.TourID = &id
	}
	return snap
}
