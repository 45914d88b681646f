package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPublisher is the slice of *redis.Client the relay uses.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

const (
	// relayMaxFailures consecutive publish errors take the relay out of
	// rotation for relayCooldown.
	relayMaxFailures = 3
	relayCooldown    = 30 * time.Second
)

// RedisRelay is a hub subscriber that republishes every broadcast on a Redis
// pub/sub channel for out-of-process displays. Like every subscriber it gets
// no backlog.
type RedisRelay struct {
	client  redisPublisher
	channel string
	log     *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	failures    int
	pausedUntil time.Time
}

func NewRedisRelay(client redisPublisher, channel string, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, log: log, now: time.Now}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisRelay) ID() string { return "redis:" + r.channel }

// Ready is false while the relay is backing off after repeated failures.
func (r *RedisRelay) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.now().Before(r.pausedUntil)
}

func (r *RedisRelay) Send(ctx context.Context, payload []byte) error {
	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		r.recordFailure()
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()
	r.log.Debug("relayed event to redis", zap.String("channel", r.channel), zap.Int64("receivers", receivers))
	return nil
}

func (r *RedisRelay) recordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	if r.failures < relayMaxFailures {
		return
	}
	r.failures = 0
	r.pausedUntil = r.now().Add(relayCooldown)
	r.log.Warn("redis relay paused after repeated failures",
		zap.String("channel", r.channel),
		zap.Duration("cooldown", relayCooldown))
}
