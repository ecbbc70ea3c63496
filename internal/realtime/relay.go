package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quadpass/quadpass/internal/domain"
)

type relayState int

const (
	stateStopped relayState = iota
	stateStarting
	stateRunning
)

const (
	defaultMaxConsumeRetries = 5
	defaultInitialBackoff    = 500 * time.Millisecond
)

// busMessage is the bus envelope: the domain event plus a delivery id.
type busMessage struct {
	ID string `json:"id"`
	domain.DomainEvent
}

// Relay bridges the Redis pub/sub bus to locally connected sessions. Every
// backend instance publishes to and consumes from one shared channel, so an
// update reaches clients regardless of which instance handled the request.
//
// A nil Redis client puts the relay in permanently-disabled mode: Publish
// returns an empty id, Start is a no-op and the status surface reports
// enabled=false.
type Relay struct {
	client   *redis.Client
	registry *Registry
	channel  string
	logger   *zap.Logger

	maxRetries  int
	baseBackoff time.Duration

	mu     sync.Mutex
	state  relayState
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRelay(client *redis.Client, registry *Registry, channel string, logger *zap.Logger) *Relay {
	return &Relay{
		client:      client,
		registry:    registry,
		channel:     channel,
		logger:      logger.Named("relay"),
		maxRetries:  defaultMaxConsumeRetries,
		baseBackoff: defaultInitialBackoff,
	}
}

func (r *Relay) Enabled() bool {
	return r.client != nil
}

func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRunning
}

// Publish sends a domain event to the bus and returns its delivery id.
// In disabled mode it returns an empty id and no error.
func (r *Relay) Publish(ctx context.Context, ev domain.DomainEvent) (string, error) {
	if r.client == nil {
		return "", nil
	}

	msg := busMessage{ID: uuid.NewString(), DomainEvent: ev}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal domain event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return "", fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return msg.ID, nil
}

// Start launches the single consumer goroutine for this instance. Consume
// errors trigger a capped backoff resubscribe before the relay gives up and
// reports stopped.
func (r *Relay) Start(ctx context.Context) {
	if r.client == nil {
		r.logger.Info("relay disabled, no bus configured")
		return
	}

	r.mu.Lock()
	if r.state != stateStopped {
		r.mu.Unlock()
		return
	}
	r.state = stateStarting
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.consume(ctx)
}

// Stop cancels the consumer and waits for it to exit.
func (r *Relay) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Relay) consume(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.state = stateStopped
		done := r.done
		r.mu.Unlock()
		close(done)
	}()

	backoff := r.baseBackoff
	retries := 0

	for {
		pubsub := r.client.Subscribe(ctx, r.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			retries++
			if retries > r.maxRetries {
				r.logger.Error("relay subscription failed, giving up", zap.Error(err))
				return
			}
			r.logger.Warn("relay subscribe failed, retrying",
				zap.Int("attempt", retries),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			continue
		}

		r.mu.Lock()
		r.state = stateRunning
		r.mu.Unlock()
		r.logger.Info("relay listening", zap.String("channel", r.channel))
		retries = 0
		backoff = r.baseBackoff

		// Messages are handled strictly in receipt order so a client's view
		// of a single event stays monotonic.
		ch := pubsub.Channel()
	recv:
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				r.dispatch([]byte(msg.Payload))
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			}
		}

		_ = pubsub.Close()
		if ctx.Err() != nil {
			return
		}
		r.mu.Lock()
		r.state = stateStarting
		r.mu.Unlock()
		r.logger.Warn("relay subscription lost, reconnecting")
	}
}

// dispatch fans one bus message out to every locally subscribed session.
// Delivery to a session that has since disconnected is a no-op.
func (r *Relay) dispatch(payload []byte) {
	var msg busMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		r.logger.Warn("relay dropping malformed bus message", zap.Error(err))
		return
	}

	out, err := json.Marshal(msg.DomainEvent)
	if err != nil {
		r.logger.Warn("relay re-encode failed", zap.Error(err))
		return
	}

	for _, topic := range topicsFor(msg.DomainEvent) {
		delivered := r.registry.Deliver(topic, out)
		r.logger.Debug("relay delivered",
			zap.String("type", string(msg.Type)),
			zap.String("topic", topic),
			zap.Int("sessions", delivered))
	}
}
