package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"tour-server/models"
)

// Publisher is the part of Hub the schedulers need.
type Publisher interface {
	Publish(ctx context.Context, event models.BroadcastEvent) int
}

type adTimer struct {
	timer  *time.Timer
	tourID string
}

// AdScheduler plays a random advertisement a fixed delay after it is armed.
// Ads are never deduplicated.
type AdScheduler struct {
	mu       sync.Mutex
	ads      []models.Advertisement
	delay    time.Duration
	rng      *rand.Rand
	pending  map[*adTimer]struct{}
	inflight sync.WaitGroup

	state     *TourState
	resolver  *ContentResolver
	publisher Publisher
	log       *zap.Logger
	metrics   *Metrics
}

func NewAdScheduler(ads []models.Advertisement, delay time.Duration, rng *rand.Rand, state *TourState, resolver *ContentResolver, publisher Publisher, log *zap.Logger, metrics *Metrics) *AdScheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AdScheduler{
		ads:       ads,
		delay:     delay,
		rng:       rng,
		pending:   make(map[*adTimer]struct{}),
		state:     state,
		resolver:  resolver,
		publisher: publisher,
		log:       log,
		metrics:   metrics,
	}
}

// Arm schedules the next ad for tourID, replacing whatever was pending.
// Nothing is scheduled when there are no ads or tourID is no longer the
// active tour.
func (s *AdScheduler) Arm(tourID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPendingLocked()
	if len(s.ads) == 0 || !s.state.IsCurrent(tourID) {
		return
	}
	h := &adTimer{tourID: tourID}
	// fire takes s.mu, so it cannot observe h before it is registered.
	h.timer = time.AfterFunc(s.delay, func() { s.fire(h) })
	s.pending[h] = struct{}{}
}

// Cancel stops every pending ad and waits for callbacks already running.
// No ad is published once Cancel has returned.
func (s *AdScheduler) Cancel() {
	s.mu.Lock()
	s.stopPendingLocked()
	s.mu.Unlock()
	s.inflight.Wait()
}

// Pending reports how many ads are waiting to fire.
func (s *AdScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *AdScheduler) stopPendingLocked() {
	for h := range s.pending {
		h.timer.Stop()
		delete(s.pending, h)
	}
}

func (s *AdScheduler) fire(h *adTimer) {
	s.mu.Lock()
	if _, ok := s.pending[h]; !ok {
		// cancelled or replaced after the timer was already queued
		s.mu.Unlock()
		return
	}
	delete(s.pending, h)
	s.inflight.Add(1)
	ad := s.ads[s.rng.Intn(len(s.ads))]
	s.mu.Unlock()
	defer s.inflight.Done()

	if !s.state.IsCurrent(h.tourID) {
		return
	}
	content, err := s.resolver.ResolveAd(ad)
	if err != nil {
		s.metrics.resolutionError()
		s.log.Error("failed to resolve ad", zap.String("ad", ad.ID), zap.Error(err))
		return
	}
	s.publisher.Publish(context.Background(), models.BroadcastEvent{Kind: models.KindAd, Content: content})
}
