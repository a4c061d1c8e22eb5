// Package publisher fans ledger events out to an audit.Store, either
// synchronously or through a buffered background worker.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	id "rightsledger/pkg/domain"
	audit "rightsledger/pkg/platform/audit"
	"rightsledger/pkg/platform/sentinel"
)

// Publisher emits ledger events to a store. In sync mode Emit writes
// directly; in async mode events are buffered and drained by a worker
// goroutine, and Close blocks until the buffer is empty.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer    chan audit.Event
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for dropped-event reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		go p.drain()
	}
	return p
}

// Emit publishes an event. In async mode a full buffer falls back to a
// synchronous write so no event is lost.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

// List reads events for a token from the underlying store. Write-only sinks
// return ErrUnavailable.
func (p *Publisher) List(ctx context.Context, tokenID id.TokenID) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, sentinel.ErrUnavailable
	}
	return reader.ListByToken(ctx, tokenID)
}

// Close stops the worker, draining any buffered events first.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.buffer == nil {
			close(p.done)
			return
		}
		close(p.buffer)
		<-p.done
	})
}

func (p *Publisher) drain() {
	for event := range p.buffer {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to append audit event",
				"action", event.Action,
				"token_id", event.TokenID,
				"error", err,
			)
		}
	}
	close(p.done)
}
