package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tour-server/models"
)

var langs = []string{"en", "es"}

func newResolver() *ContentResolver {
	return NewContentResolver("http://localhost:3001", langs)
}

func TestGeofenceScenario(t *testing.T) {
	state := NewTourState()
	pois := []models.POI{testPOI("p1", 0, 0, 50), testPOI("p2", 0, 1, 50)}
	route := []models.Coordinates{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.4}, {Lat: 0, Lon: 1}}
	policy := NewGeofencePolicy(pois, route, state, newResolver(), zap.NewNop(), nil)
	ctx := context.Background()

	state.Start("t1")

	res := policy.Evaluate(ctx)
	require.NotNil(t, res.Event)
	assert.Equal(t, "p1", res.Event.Content.ID)
	assert.Equal(t, models.KindPOI, res.Event.Kind)
	assert.True(t, res.Advanced)

	res = policy.Evaluate(ctx)
	assert.Nil(t, res.Event)

	res = policy.Evaluate(ctx)
	require.NotNil(t, res.Event)
	assert.Equal(t, "p2", res.Event.Content.ID)

	assert.Equal(t, []string{"p1", "p2"}, state.Snapshot().PlayedPOIIDs)
}

func TestGeofenceFiresEachPOIOnce(t *testing.T) {
	state := NewTourState()
	pois := []models.POI{testPOI("p1", 0, 0, 50)}
	// vehicle parked inside p1
	policy := NewGeofencePolicy(pois, []models.Coordinates{{}, {}}, state, newResolver(), zap.NewNop(), nil)
	state.Start("t1")

	fired := 0
	for i := 0; i < 20; i++ {
		if policy.Evaluate(context.Background()).Event != nil {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
}

func TestGeofenceOneTriggerPerTick(t *testing.T) {
	state := NewTourState()
	pois := []models.POI{testPOI("a", 0, 0, 100), testPOI("b", 0, 0.0001, 100)}
	policy := NewGeofencePolicy(pois, []models.Coordinates{{}}, state, newResolver(), zap.NewNop(), nil)
	state.Start("t1")

	first := policy.Evaluate(context.Background())
	require.NotNil(t, first.Event)
	assert.Equal(t, "a", first.Event.Content.ID)

	second := policy.Evaluate(context.Background())
	require.NotNil(t, second.Event)
	assert.Equal(t, "b", second.Event.Content.ID)

	assert.Nil(t, policy.Evaluate(context.Background()).Event)
}

func TestGeofenceIgnoresTicksWhileInactive(t *testing.T) {
	state := NewTourState()
	policy := NewGeofencePolicy([]models.POI{testPOI("p1", 0, 0, 50)}, []models.Coordinates{{}, {Lat: 1}}, state, newResolver(), zap.NewNop(), nil)

	res := policy.Evaluate(context.Background())
	assert.Nil(t, res.Event)
	assert.False(t, res.Advanced)
	assert.Equal(t, 0, policy.Position())
	assert.Empty(t, state.Snapshot().PlayedPOIIDs)
}

func TestTimedPolicyAdvancesAndDeduplicates(t *testing.T) {
	state := NewTourState()
	pois := []models.POI{testPOI("p1", 0, 0, 50), testPOI("p2", 0, 1, 50), testPOI("p3", 0, 2, 50)}
	policy := NewTimedPolicy(pois, state, newResolver(), zap.NewNop(), nil)
	ctx := context.Background()
	state.Start("t1")

	var fired []string
	for i := 0; i < 2*len(pois); i++ {
		res := policy.Evaluate(ctx)
		assert.True(t, res.Advanced)
		if res.Event != nil {
			fired = append(fired, res.Event.Content.ID)
		}
	}
	// p1 is the departure point and plays once the loop wraps to it
	assert.Equal(t, []string{"p2", "p3", "p1"}, fired)
	assert.Equal(t, []string{"p2", "p3", "p1"}, state.Snapshot().PlayedPOIIDs)
}

func TestTimedPolicyInactiveDoesNotAdvance(t *testing.T) {
	state := NewTourState()
	policy := NewTimedPolicy([]models.POI{testPOI("p1", 0, 0, 50), testPOI("p2", 0, 1, 50)}, state, newResolver(), zap.NewNop(), nil)

	res := policy.Evaluate(context.Background())
	assert.Nil(t, res.Event)
	assert.False(t, res.Advanced)
	assert.Equal(t, 0, policy.Position())
}

func TestTimedPolicyEmptyCatalog(t *testing.T) {
	state := NewTourState()
	policy := NewTimedPolicy(nil, state, newResolver(), zap.NewNop(), nil)
	state.Start("t1")

	res := policy.Evaluate(context.Background())
	assert.Nil(t, res.Event)
	assert.False(t, res.Advanced)
}

func TestUnresolvablePOIIsNotMarkedPlayed(t *testing.T) {
	state := NewTourState()
	broken := testPOI("p1", 0, 0, 50)
	broken.Audio = map[string]string{"en": "only.mp3"}
	policy := NewGeofencePolicy([]models.POI{broken}, []models.Coordinates{{}}, state, newResolver(), zap.NewNop(), nil)
	state.Start("t1")

	assert.Nil(t, policy.Evaluate(context.Background()).Event)
	assert.False(t, state.IsPlayed("p1"))
}

func TestTriggerResolvesEveryLanguage(t *testing.T) {
	state := NewTourState()
	policy := NewTimedPolicy([]models.POI{testPOI("p1", 0, 0, 50)}, state, newResolver(), zap.NewNop(), nil)
	state.Start("t1")

	res := policy.Evaluate(context.Background())
	require.NotNil(t, res.Event)
	for _, lang := range langs {
		assert.NotEmpty(t, res.Event.Content.Description[lang])
		assert.Contains(t, res.Event.Content.Audio[lang], "http://localhost:3001/audio/")
	}
}

func TestEvaluateWithCancelledContextLeavesStateAlone(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("timed", func(t *testing.T) {
		state := NewTourState()
		policy := NewTimedPolicy([]models.POI{testPOI("p1", 0, 0, 50), testPOI("p2", 0, 1, 50)}, state, newResolver(), zap.NewNop(), nil)
		state.Start("t1")

		res := policy.Evaluate(cancelled)
		assert.Equal(t, "t1", res.TourID)
		assert.Nil(t, res.Event)
		assert.False(t, res.Advanced)
		assert.Equal(t, 0, policy.Position())
		assert.Empty(t, state.Snapshot().PlayedPOIIDs)

		res = policy.Evaluate(context.Background())
		require.NotNil(t, res.Event)
		assert.Equal(t, "p2", res.Event.Content.ID)
	})

	t.Run("geofence", func(t *testing.T) {
		state := NewTourState()
		policy := NewGeofencePolicy([]models.POI{testPOI("p1", 0, 0, 50)}, []models.Coordinates{{}, {Lat: 1}}, state, newResolver(), zap.NewNop(), nil)
		state.Start("t1")

		res := policy.Evaluate(cancelled)
		assert.Nil(t, res.Event)
		assert.False(t, res.Advanced)
		assert.Equal(t, 0, policy.Position())
		assert.False(t, state.IsPlayed("p1"))

		res = policy.Evaluate(context.Background())
		require.NotNil(t, res.Event)
		assert.Equal(t, "p1", res.Event.Content.ID)
	})
}
