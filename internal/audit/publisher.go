package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	id "rosterd/pkg/domain"
)

// Store is the append-only persistence behind the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPerson(ctx context.Context, personID id.PersonID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher captures audit events. Synchronous by default; with an async
// buffer, Emit never blocks the repair path and drops are logged rather
// than surfaced - audit failures must not block the underlying mutation.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox  chan Event
	wg     sync.WaitGroup
	closed chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer switches Emit to buffered fire-and-forget with the given
// capacity.
func WithAsyncBuffer(capacity int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, capacity)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, filling in id and timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"person_id", event.PersonID,
		)
		return nil
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	// Background appends use their own context; request contexts are gone
	// by the time buffered events land.
	ctx := context.Background()
	for {
		select {
		case event := <-p.inbox:
			if err := p.store.Append(ctx, event); err != nil {
				p.logger.Warn("audit append failed", "error", err, "action", event.Action)
			}
		case <-p.closed:
			for {
				select {
				case event := <-p.inbox:
					if err := p.store.Append(ctx, event); err != nil {
						p.logger.Warn("audit append failed", "error", err, "action", event.Action)
					}
				default:
					return
				}
			}
		}
	}
}

// Close flushes the async buffer, if any.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	close(p.closed)
	p.wg.Wait()
}

// ListRecent exposes the store for the admin events endpoint.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
