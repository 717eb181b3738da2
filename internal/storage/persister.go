package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/events"
)

// CommitWriter applies one commit to durable storage. Implemented by *Service.
type CommitWriter interface {
	ApplyCommit(ctx context.Context, commit binder.Commit) error
}

const (
	// maxCommitAttempts bounds how often one commit is retried before it is dropped.
	maxCommitAttempts = 5
	defaultRetryDelay = time.Second
)

// Persister is an events.Observer that writes binder:committed events to storage
// in the background. OnEvent never blocks the session; failures are logged and
// published as persist:error events instead of being rolled back into memory.
//
// Commits are written strictly in order. A commit that fails stays at the head
// of the queue and is retried after a delay; later commits wait behind it. After
// maxCommitAttempts failures it is dropped and counted, and storage may lag the
// session until the affected rows change again.
type Persister struct {
	writer     CommitWriter
	dispatcher binder.Dispatcher
	retryDelay time.Duration

	mu      sync.Mutex
	pending []queuedCommit
	notify  chan struct{}

	// applyMu serialises draining so commits are written in order.
	applyMu sync.Mutex

	failures int
	dropped  int
}

type queuedCommit struct {
	commit   binder.Commit
	attempts int
}

// NewPersister creates a persister. dispatcher may be nil.
func NewPersister(writer CommitWriter, dispatcher binder.Dispatcher) *Persister {
	return &Persister{
		writer:     writer,
		dispatcher: dispatcher,
		retryDelay: defaultRetryDelay,
		notify:     make(chan struct{}, 1),
	}
}

// Name implements events.Observer.
func (p *Persister) Name() string {
	return "Persister"
}

// ShouldHandle implements events.Observer.
func (p *Persister) ShouldHandle(eventType string) bool {
	return eventType == events.TypeBinderCommitted
}

// OnEvent implements events.Observer by queueing the commit.
func (p *Persister) OnEvent(event events.Event) error {
	commit, ok := events.GetTypedData[binder.Commit](event)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data, event.Type)
	}

	p.mu.Lock()
	p.pending = append(p.pending, queuedCommit{commit: commit})
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of queued commits, including one waiting for a retry.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Failures returns the number of failed write attempts.
func (p *Persister) Failures() int {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()
	return p.failures
}

// Dropped returns the number of commits given up on after maxCommitAttempts.
func (p *Persister) Dropped() int {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()
	return p.dropped
}

// Run writes queued commits until ctx is cancelled, then flushes what is left.
func (p *Persister) Run(ctx context.Context) error {
	log.Println("[Persister] Started")

	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			p.drain(flushCtx)
			cancel()
			log.Println("[Persister] Stopped")
			return nil
		case <-p.notify:
			if retry != nil {
				continue
			}
		case <-retry:
		}

		retry = nil
		if !p.Flush(ctx) {
			retry = time.After(p.retryDelay)
		}
	}
}

// drain flushes until the queue is empty or ctx expires.
func (p *Persister) drain(ctx context.Context) {
	for !p.Flush(ctx) {
		select {
		case <-ctx.Done():
			log.Printf("[Persister] %d commits left unwritten at shutdown", p.Pending())
			return
		case <-time.After(p.retryDelay):
		}
	}
}

// Flush writes queued commits in order. It returns false when it stopped at a
// commit that failed and is waiting for a retry.
func (p *Persister) Flush(ctx context.Context) bool {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return true
		}
		commit := p.pending[0].commit
		p.mu.Unlock()

		err := RetryOnBusy(ctx, func() error {
			return p.writer.ApplyCommit(ctx, commit)
		})

		p.mu.Lock()
		if err == nil {
			p.pending = p.pending[1:]
			p.mu.Unlock()
			continue
		}
		p.pending[0].attempts++
		attempts := p.pending[0].attempts
		drop := attempts >= maxCommitAttempts
		if drop {
			p.pending = p.pending[1:]
		}
		p.mu.Unlock()

		p.failures++
		message := err.Error()
		if drop {
			p.dropped++
			message = fmt.Sprintf("dropped after %d attempts: %v", attempts, err)
		}
		log.Printf("[Persister] Failed to persist commit v%d (attempt %d): %v", commit.Version, attempts, err)
		if p.dispatcher != nil {
			p.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypePersistError, events.PersistErrorEvent{
				Version: commit.Version,
				Error:   message,
			}))
		}
		if !drop {
			return false
		}
	}
}
