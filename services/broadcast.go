package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"tour-server/models"
)

// Subscriber receives broadcast payloads. Send must honour ctx.
type Subscriber interface {
	ID() string
	Ready() bool
	Send(ctx context.Context, payload []byte) error
}

// Hub fans events out to every registered subscriber. Delivery is
// at-most-once with no backlog: late subscribers never see earlier events.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber

	timeout       time.Duration
	adTriggerType bool
	log           *zap.Logger
	metrics       *Metrics
}

type HubOptions struct {
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
	// AdTriggerType sends ads with type AD_TRIGGER instead of POI_TRIGGER.
	AdTriggerType bool
}

func NewHub(opts HubOptions, log *zap.Logger, metrics *Metrics) *Hub {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Hub{
		subs:          make(map[string]Subscriber),
		timeout:       opts.Timeout,
		adTriggerType: opts.AdTriggerType,
		log:           log,
		metrics:       metrics,
	}
}

func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	h.subs[sub.ID()] = sub
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.subscribers(n)
	h.log.Debug("subscriber added", zap.String("subscriber", sub.ID()), zap.Int("subscribers", n))
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.subscribers(n)
	h.log.Debug("subscriber removed", zap.String("subscriber", id), zap.Int("subscribers", n))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers event to every ready subscriber, each in its own
// goroutine under the hub timeout, and returns how many deliveries
// succeeded. Failures are logged, never returned. Cancelling ctx does not
// cut a publish short; only the hub timeout does.
func (h *Hub) Publish(ctx context.Context, event models.BroadcastEvent) int {
	payload, err := json.Marshal(event.Message(h.adTriggerType))
	if err != nil {
		h.log.Error("failed to encode broadcast event", zap.String("id", event.Content.ID), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	results := make(chan result, len(targets))
	pending := 0
	for _, sub := range targets {
		if !sub.Ready() {
			h.metrics.delivery("skipped")
			continue
		}
		pending++
		go func(sub Subscriber) {
			results <- result{id: sub.ID(), err: sub.Send(ctx, payload)}
		}(sub)
	}

	delivered := 0
	for pending > 0 {
		select {
		case r := <-results:
			pending--
			if r.err != nil {
				h.metrics.delivery("failed")
				h.log.Warn("broadcast delivery failed", zap.String("subscriber", r.id), zap.Error(r.err))
				continue
			}
			delivered++
			h.metrics.delivery("ok")
		case <-ctx.Done():
			// Subscribers still sending after the deadline are abandoned; their
			// goroutines finish into the buffered channel.
			h.log.Warn("broadcast deadline reached", zap.Int("abandoned", pending))
			for ; pending > 0; pending-- {
				h.metrics.delivery("timeout")
			}
		}
	}

	h.metrics.trigger(event.Kind)
	h.log.Info("broadcast",
		zap.String("kind", string(event.Kind)),
		zap.String("id", event.Content.ID),
		zap.Int("delivered", delivered),
		zap.Int("subscribers", len(targets)),
	)
	return delivered
}
