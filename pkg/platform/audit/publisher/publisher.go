// Package publisher is the entry point services use to emit audit events.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	audit "agrifin/pkg/platform/audit"
	"agrifin/pkg/platform/audit/worker"
	"agrifin/pkg/requestcontext"
)

var (
	// ErrBufferFull is returned by Emit in async mode when the buffer is full.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrClosed is returned by Emit after Close.
	ErrClosed = errors.New("audit publisher closed")
	// ErrListUnsupported is returned by List when the store cannot read back.
	ErrListUnsupported = errors.New("audit store does not support listing")
)

// Publisher stamps events and hands them to a Store, either inline or through
// a bounded buffer drained by a single worker.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	buffer  int
	sampler Sampler

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
}

// Sampler decides whether an event is recorded at all.
type Sampler interface {
	Keep(event audit.Event) bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

// WithSampler drops events the sampler does not keep. Dropped events are not
// an error.
func WithSampler(s Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records event. Missing ID, timestamp and category are filled in; the
// timestamp comes from the request clock when one is set on ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.sampler != nil && !p.sampler.Keep(event) {
		return nil
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"request_id", event.RequestID,
			)
		}
		return ErrBufferFull
	}
}

// List returns the events recorded for requestID when the store supports it.
func (p *Publisher) List(ctx context.Context, requestID string) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return lister.ListByRequest(ctx, requestID)
}

// Recent returns at most limit of the latest events when the store supports
// reading back.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return lister.ListRecent(ctx, limit)
}

// Close stops accepting events and, in async mode, waits until the buffer
// has been drained. It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}
