package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tour-server/models"
)

// TourService drives a tour: it owns the tick loop, runs the trigger policy,
// re-arms the ad scheduler after every advance and publishes what fires.
type TourService struct {
	state     *TourState
	policy    TriggerPolicy
	ads       *AdScheduler
	publisher Publisher
	interval  time.Duration
	log       *zap.Logger
	metrics   *Metrics

	lifecycle sync.Mutex // Start / End
	tickMu    sync.Mutex // a tick never straddles a Start or End
	stop      chan struct{}
	done      chan struct{}
}

type TourServiceOptions struct {
	// TickInterval is the trigger evaluation period. Zero disables the
	// background loop; ticks then only happen through Tick.
	TickInterval time.Duration
}

func NewTourService(state *TourState, policy TriggerPolicy, ads *AdScheduler, publisher Publisher, opts TourServiceOptions, log *zap.Logger, metrics *Metrics) *TourService {
	return &TourService{
		state:     state,
		policy:    policy,
		ads:       ads,
		publisher: publisher,
		interval:  opts.TickInterval,
		log:       log,
		metrics:   metrics,
	}
}

// Start begins a new tour, replacing any running one. An empty tourID gets a
// generated one.
func (s *TourService) Start(ctx context.Context, tourID string) models.TourSnapshot {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopLoop()
	s.ads.Cancel()

	if tourID == "" {
		tourID = uuid.New().String()
	}

	s.tickMu.Lock()
	s.state.Start(tourID)
	s.policy.Reset()
	s.tickMu.Unlock()

	s.ads.Arm(tourID)
	s.metrics.tourActive(true)
	s.startLoop()

	s.log.Info("tour started", zap.String("tour_id", tourID), zap.String("policy", s.policy.Name()))
	return s.state.Snapshot()
}

// End stops the tour. Once it returns no further trigger of any kind is
// published for it. Ending an inactive tour is a no-op.
func (s *TourService) End(ctx context.Context) models.TourSnapshot {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	ended := s.state.End()

	// wait out a tick already past its active check
	s.tickMu.Lock()
	s.tickMu.Unlock() //nolint:staticcheck // barrier

	s.stopLoop()
	s.ads.Cancel()

	snap := s.state.Snapshot()
	if ended {
		s.metrics.tourActive(false)
		s.log.Info("tour ended", zap.Stringp("tour_id", snap.TourID), zap.Strings("played", snap.PlayedPOIIDs))
	}
	return snap
}

func (s *TourService) State() models.TourSnapshot {
	return s.state.Snapshot()
}

// Position is the simulated vehicle's index along its route.
func (s *TourService) Position() int {
	return s.policy.Position()
}

func (s *TourService) PolicyName() string {
	return s.policy.Name()
}

// Tick runs one trigger evaluation and publishes its event, if any.
func (s *TourService) Tick(ctx context.Context) TickResult {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	res := s.policy.Evaluate(ctx)
	if res.TourID == "" {
		s.metrics.tick("inactive")
		return res
	}
	if res.Advanced {
		s.ads.Arm(res.TourID)
	}
	if res.Event == nil {
		s.metrics.tick("silent")
		return res
	}
	s.metrics.tick("triggered")
	s.publisher.Publish(ctx, *res.Event)
	return res
}

// Close ends any running tour.
func (s *TourService) Close() {
	s.End(context.Background())
}

func (s *TourService) startLoop() {
	if s.interval <= 0 {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.interval, s.stop, s.done)
}

func (s *TourService) stopLoop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
}

func (s *TourService) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			s.Tick(context.Background())
		}
	}
}
