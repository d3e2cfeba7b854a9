package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tnqbao/gau-docgen-orchestrator/infra"
)

const defaultReconnectDelay = 2 * time.Second

// EventSource is the notification transport the propagator subscribes to.
type EventSource interface {
	Subscribe(ctx context.Context, channel string) (EventStream, error)
}

// EventStream delivers raw event payloads until closed.
type EventStream interface {
	Messages() <-chan string
	Close() error
}

// Propagator keeps observers current without polling: it holds one
// notification channel per subscription and re-invokes the observer's
// refresh callback on every row change. The transport does not redeliver
// events missed while a channel is down, so after every successful
// reconnect one synthetic recovery event is delivered and the observer
// re-fetches current state.
type Propagator struct {
	source         EventSource
	logger         *infra.LoggerClient
	reconnectDelay time.Duration
}

func NewPropagator(source EventSource, logger *infra.LoggerClient, reconnectDelay time.Duration) *Propagator {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	return &Propagator{
		source:         source,
		logger:         logger,
		reconnectDelay: reconnectDelay,
	}
}

// Subscription is a live change feed handle. Unsubscribe is idempotent and
// safe to call from a concurrent teardown path; it cancels any pending
// reconnect timer.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
	})
	<-s.done
}

// Subscribe opens a change feed scoped to one owner. onChange is invoked
// once per event, never batched, from a single goroutine.
func (p *Propagator) Subscribe(ownerID uuid.UUID, onChange func(ChangeEvent)) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.run(ctx, ownerID, onChange, sub.done)

	return sub
}

func (p *Propagator) run(ctx context.Context, ownerID uuid.UUID, onChange func(ChangeEvent), done chan struct{}) {
	defer close(done)

	channel := ownerChannel(ownerID)
	dropped := false

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := p.source.Subscribe(ctx, channel)
		if err != nil {
			p.logger.WarningWithContextf(ctx, "[Propagator] Failed to subscribe to %s, retrying: %v", channel, err)
			if sleepErr := sleep(ctx, p.reconnectDelay); sleepErr != nil {
				return
			}
			dropped = true
			continue
		}

		if dropped {
			onChange(ChangeEvent{OwnerID: ownerID, Change: ChangeRecovery})
		}

		p.consume(ctx, stream, onChange)
		_ = stream.Close()

		if ctx.Err() != nil {
			return
		}

		p.logger.WarningWithContextf(ctx, "[Propagator] Channel %s dropped, reconnecting", channel)
		dropped = true
		if sleepErr := sleep(ctx, p.reconnectDelay); sleepErr != nil {
			return
		}
	}
}

func (p *Propagator) consume(ctx context.Context, stream EventStream, onChange func(ChangeEvent)) {
	msgs := stream.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			var event ChangeEvent
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				p.logger.WarningWithContextf(ctx, "[Propagator] Dropping malformed change event: %v", err)
				continue
			}
			onChange(event)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// redisEventSource adapts the redis pub/sub client to EventSource.
type redisEventSource struct {
	rdb *redis.Client
}

func NewRedisEventSource(rdb *redis.Client) EventSource {
	return &redisEventSource{rdb: rdb}
}

func (s *redisEventSource) Subscribe(ctx context.Context, channel string) (EventStream, error) {
	sub := s.rdb.Subscribe(ctx, channel)

	// Confirm the subscription actually started before reporting success.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	stream := &redisEventStream{
		sub:  sub,
		msgs: make(chan string),
	}
	go stream.pump(ctx)

	return stream, nil
}

type redisEventStream struct {
	sub  *redis.PubSub
	msgs chan string
}

func (s *redisEventStream) pump(ctx context.Context) {
	defer close(s.msgs)
	ch := s.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			select {
			case s.msgs <- m.Payload:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisEventStream) Messages() <-chan string {
	return s.msgs
}

func (s *redisEventStream) Close() error {
	return s.sub.Close()
}
