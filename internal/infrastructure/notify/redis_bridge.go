package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stitchline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	// DefaultChannel is the Redis Pub/Sub channel carrying review
	// notifications between instances.
	DefaultChannel = "stitchline:review:notifications"

	defaultCloseTimeout = 5 * time.Second
)

// RedisBridge mirrors review notifications across instances through
// Redis Pub/Sub. Each instance publishes locally produced notifications
// and feeds remotely produced ones into its own stream hub, so a
// customer connected to instance A still hears about a decision made on
// instance B.
type RedisBridge struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	origin     string
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisBridgeOption is a functional option for configuring the bridge
type RedisBridgeOption func(*RedisBridge)

// WithBridgeChannel sets the Pub/Sub channel name
func WithBridgeChannel(channel string) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.channel = channel
	}
}

// WithBridgeLogger sets the logger for the bridge
func WithBridgeLogger(logger *zap.Logger) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.logger = logger
	}
}

// WithBridgeOrigin sets the instance identifier stamped on outgoing
// notifications. Incoming notifications with a matching origin are
// dropped as echoes.
func WithBridgeOrigin(origin string) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.origin = origin
	}
}

// NewRedisBridge creates a bridge with its own Redis client
func NewRedisBridge(cfg config.RedisConfig, opts ...RedisBridgeOption) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	bridge := &RedisBridge{
		client:     client,
		ownsClient: true,
		channel:    DefaultChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(bridge)
	}

	return bridge, nil
}

// NewRedisBridgeWithClient creates a bridge with an existing Redis
// client. The caller retains ownership of the client.
func NewRedisBridgeWithClient(client *redis.Client, opts ...RedisBridgeOption) *RedisBridge {
	bridge := &RedisBridge{
		client:     client,
		ownsClient: false,
		channel:    DefaultChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(bridge)
	}

	return bridge
}

// Publish sends a notification to all subscribed instances
func (b *RedisBridge) Publish(ctx context.Context, n ReviewNotification) error {
	if n.Timestamp == 0 {
		n.Timestamp = time.Now().UnixNano()
	}
	if n.Origin == "" {
		n.Origin = b.origin
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish review notification",
			zap.String("channel", b.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	b.logger.Debug("Published review notification",
		zap.String("event_type", n.EventType),
		zap.String("review_id", n.ReviewID.String()),
		zap.String("channel", b.channel))

	return nil
}

// Subscribe starts listening for notifications from other instances.
// The callback is invoked for each received message; echoes of this
// instance's own notifications are filtered out. Blocks until the
// context is cancelled, so call it in a goroutine.
func (b *RedisBridge) Subscribe(ctx context.Context, callback func(n ReviewNotification)) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("Subscribed to review notification channel",
		zap.String("channel", b.channel))

	ch := pubsub.Channel()

	for {
		select {
		case <-subCtx.Done():
			b.logger.Info("Review notification subscription stopped")
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("Review notification channel closed")
				b.mu.Lock()
				b.isRunning = false
				b.mu.Unlock()
				b.markDone()
				return nil
			}

			var n ReviewNotification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.logger.Error("Failed to unmarshal review notification",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			if b.origin != "" && n.Origin == b.origin {
				continue
			}

			// Invoke callback off the receive loop so a slow consumer
			// cannot back up the subscription
			go func(n ReviewNotification) {
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("Panic in notification callback",
							zap.Any("panic", r))
					}
				}()
				callback(n)
			}(n)
		}
	}
}

func (b *RedisBridge) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close releases any resources held by the bridge
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("Timeout waiting for subscription to stop")
		}
	}

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}
