package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher records events in the in-memory store and, when forwarding is
// enabled, queues them for a Worker. Emit never blocks on the queue: when it
// is full the event is dropped from forwarding and counted.
type Publisher struct {
	store   *InMemoryStore
	queue   chan Event
	logger  *slog.Logger
	now     func() time.Time
	dropped atomic.Int64

	closeOnce sync.Once
}

type PublisherOption func(*Publisher)

// WithForwarding enables the forwarding queue with the given capacity.
func WithForwarding(buffer int) PublisherOption {
	return func(p *Publisher) {
		if buffer <= 0 {
			buffer = 1
		}
		p.queue = make(chan Event, buffer)
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store *InMemoryStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.queue == nil {
		return nil
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit forwarding queue full, event not forwarded",
			"action", event.Action,
			"session_id", event.SessionID,
		)
	}
	return nil
}

// Queue is the forwarding inbox for a Worker; nil when forwarding is off.
func (p *Publisher) Queue() <-chan Event {
	return p.queue
}

func (p *Publisher) List(ctx context.Context, sessionID string) ([]Event, error) {
	return p.store.ListBySession(ctx, sessionID)
}

// Dropped reports how many events were not forwarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops forwarding; the Worker drains what is queued and returns.
// Emit must not be called after Close.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.queue != nil {
			close(p.queue)
		}
	})
}
