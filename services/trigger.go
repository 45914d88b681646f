package services

import (
	"context"

	"go.uber.org/zap"

	"tour-server/models"
)

// TickResult is the outcome of one trigger evaluation.
type TickResult struct {
	TourID string
	// Event is nil when nothing fired.
	Event *models.BroadcastEvent
	// Advanced reports that the simulated position moved.
	Advanced bool
}

// TriggerPolicy decides, per tick, whether a POI fires. Implementations must
// do nothing while the tour is inactive and must fire each POI at most once
// per tour.
type TriggerPolicy interface {
	Name() string
	// Evaluate runs one tick. A cancelled ctx leaves position and state
	// untouched.
	Evaluate(ctx context.Context) TickResult
	// Reset rewinds the simulated position.
	Reset()
	// Position is the simulator index, for status reporting.
	Position() int
}

type policyBase struct {
	state    *TourState
	resolver *ContentResolver
	log      *zap.Logger
	metrics  *Metrics
}

// fire resolves poi and claims it for tourID. Resolution happens first so a
// broken catalog record is never marked played.
func (b *policyBase) fire(tourID string, poi models.POI) *models.BroadcastEvent {
	content, err := b.resolver.ResolvePOI(poi)
	if err != nil {
		b.metrics.resolutionError()
		b.log.Error("failed to resolve POI", zap.String("poi", poi.ID), zap.Error(err))
		return nil
	}
	if !b.state.Claim(tourID, poi.ID) {
		return nil
	}
	return &models.BroadcastEvent{Kind: models.KindPOI, Content: content}
}

// TimedPolicy treats the simulator index as the vehicle's POI: every tick
// moves to the next POI and announces it if it has not played yet. The POI at
// index 0 is the departure point and is announced when the loop wraps to it.
type TimedPolicy struct {
	policyBase
	sim *Simulator[models.POI]
}

func NewTimedPolicy(pois []models.POI, state *TourState, resolver *ContentResolver, log *zap.Logger, metrics *Metrics) *TimedPolicy {
	return &TimedPolicy{
		policyBase: policyBase{state: state, resolver: resolver, log: log, metrics: metrics},
		sim:        NewSimulator(pois),
	}
}

func (p *TimedPolicy) Name() string { return "timed" }

func (p *TimedPolicy) Reset() { p.sim.Reset() }

func (p *TimedPolicy) Evaluate(ctx context.Context) TickResult {
	tourID, active := p.state.Current()
	if !active {
		return TickResult{}
	}
	res := TickResult{TourID: tourID}
	if ctx.Err() != nil {
		return res
	}
	poi, ok := p.sim.AdvanceAndCurrent()
	if !ok {
		return res
	}
	res.Advanced = true
	if p.state.IsPlayed(poi.ID) {
		return res
	}
	res.Event = p.fire(tourID, poi)
	return res
}

func (p *TimedPolicy) Position() int { return p.sim.Index() }

// GeofencePolicy walks a coordinate route and fires the first unplayed POI
// whose radius contains the current point. One trigger per tick at most.
type GeofencePolicy struct {
	policyBase
	geo *GeoService
	sim *Simulator[models.Coordinates]
}

func NewGeofencePolicy(pois []models.POI, route []models.Coordinates, state *TourState, resolver *ContentResolver, log *zap.Logger, metrics *Metrics) *GeofencePolicy {
	return &GeofencePolicy{
		policyBase: policyBase{state: state, resolver: resolver, log: log, metrics: metrics},
		geo:        NewGeoService(pois),
		sim:        NewSimulator(route),
	}
}

func (p *GeofencePolicy) Name() string { return "geofence" }

func (p *GeofencePolicy) Reset() { p.sim.Reset() }

// Evaluate checks the current point, then moves the vehicle one step along
// the route for the next tick.
func (p *GeofencePolicy) Evaluate(ctx context.Context) TickResult {
	tourID, active := p.state.Current()
	if !active {
		return TickResult{}
	}
	res := TickResult{TourID: tourID}
	if ctx.Err() != nil {
		return res
	}
	at, ok := p.sim.Current()
	if !ok {
		return res
	}
	if poi, found := p.geo.FirstWithinRadius(at, p.state.IsPlayed); found {
		res.Event = p.fire(tourID, poi)
	}
	p.sim.Advance()
	res.Advanced = true
	return res
}

func (p *GeofencePolicy) Position() int { return p.sim.Index() }
