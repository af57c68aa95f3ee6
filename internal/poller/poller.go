// Package poller keeps a snapshot of a remote resource fresh by fetching it
// on a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultInterval is used when Config.Interval is not positive.
const DefaultInterval = 30 * time.Second

// FetchFunc loads resource. It must return promptly once ctx is done.
type FetchFunc[T any] func(ctx context.Context, resource string) (T, error)

// Config tunes a Poller.
type Config struct {
	// Interval separates the end of one attempt from the start of the next.
	Interval time.Duration
	// Timeout bounds each attempt. Zero leaves attempts unbounded.
	Timeout time.Duration
	Clock   clockwork.Clock
	Logger  *zap.Logger
}

var errTimedOut = errors.New("poll attempt timed out")

// Poller runs one sequential fetch loop for the current resource.
//
// At most one attempt is live at a time. Every attempt carries the
// generation it was started in; changing the resource, refreshing or
// closing bumps the generation and cancels the live attempt, and a result
// whose generation is no longer current is dropped without touching the
// state or scheduling a follow-up.
type Poller[T any] struct {
	fetch FetchFunc[T]
	cfg   Config
	clock clockwork.Clock
	log   *zap.Logger

	mu        sync.Mutex
	state     Snapshot[T]
	gen       uint64
	cancel    func()
	timer     clockwork.Timer
	listeners []func(Snapshot[T])

	notifyMu  sync.Mutex
	delivered uint64
}

// New creates an idle Poller. Call SetResource to start polling.
func New[T any](fetch FetchFunc[T], cfg Config) *Poller[T] {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Poller[T]{
		fetch: fetch,
		cfg:   cfg,
		clock: cfg.Clock,
		log:   cfg.Logger,
	}
}

// OnChange registers fn to receive every published snapshot, in version
// order. fn runs on the poller's goroutines and must not call back into
// the Poller synchronously.
func (p *Poller[T]) OnChange(fn func(Snapshot[T])) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Snapshot returns the current state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetResource switches the poller to resource, discarding the data of the
// previous one. An empty resource stops polling. Setting the current
// resource again is a no-op.
func (p *Poller[T]) SetResource(resource string) {
	p.mu.Lock()
	if p.state.Closed || resource == p.state.Resource {
		p.mu.Unlock()
		return
	}
	p.haltLocked()
	p.state = Snapshot[T]{Resource: resource, Version: p.state.Version}
	if resource != "" {
		p.startLocked()
	}
	snap := p.commitLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// Refresh starts an attempt now, superseding the live one and any pending
// timer. It does nothing while idle or closed.
func (p *Poller[T]) Refresh() {
	p.mu.Lock()
	if p.state.Closed || p.state.Resource == "" {
		p.mu.Unlock()
		return
	}
	p.haltLocked()
	p.startLocked()
	snap := p.commitLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// Close stops polling for good. The torn-down snapshot is the last one
// published; results that arrive later are dropped.
func (p *Poller[T]) Close() {
	p.mu.Lock()
	if p.state.Closed {
		p.mu.Unlock()
		return
	}
	p.haltLocked()
	p.state.Closed = true
	p.state.Loading = false
	p.state.Updating = false
	snap := p.commitLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// haltLocked invalidates the live attempt and the pending timer.
func (p *Poller[T]) haltLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// startLocked launches an attempt in a new generation.
func (p *Poller[T]) startLocked() {
	p.gen++
	gen := p.gen
	if p.state.HasData {
		p.state.Updating = true
	} else {
		p.state.Loading = true
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	var timeout clockwork.Timer
	if p.cfg.Timeout > 0 {
		timeout = p.clock.AfterFunc(p.cfg.Timeout, func() { cancel(errTimedOut) })
	}
	stop := func() {
		if timeout != nil {
			timeout.Stop()
		}
		cancel(context.Canceled)
	}
	p.cancel = stop

	go p.attempt(ctx, stop, gen, p.state.Resource)
}

func (p *Poller[T]) attempt(ctx context.Context, stop func(), gen uint64, resource string) {
	data, err := p.fetch(ctx, resource)
	timedOut := errors.Is(context.Cause(ctx), errTimedOut)
	stop()

	p.mu.Lock()
	if gen != p.gen || p.state.Closed {
		p.mu.Unlock()
		p.log.Debug("dropped superseded poll result", zap.String("resource", resource))
		return
	}

	if err == nil {
		p.state.Data = data
		p.state.HasData = true
		p.state.Err = ""
		p.state.LastUpdatedAt = p.clock.Now()
	} else {
		p.state.Err = p.describe(err, timedOut)
		p.log.Warn("poll attempt failed",
			zap.String("resource", resource),
			zap.Bool("timeout", timedOut),
			zap.Error(err),
		)
	}
	p.state.Loading = false
	p.state.Updating = false
	p.cancel = nil
	p.timer = p.clock.AfterFunc(p.cfg.Interval, func() { p.tick(gen) })

	snap := p.commitLocked()
	p.mu.Unlock()
	p.publish(snap)
}

// tick starts the scheduled follow-up of generation gen.
func (p *Poller[T]) tick(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.state.Closed {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.startLocked()
	snap := p.commitLocked()
	p.mu.Unlock()
	p.publish(snap)
}

func (p *Poller[T]) describe(err error, timedOut bool) string {
	if timedOut {
		return fmt.Sprintf("request timed out after %s", p.cfg.Timeout)
	}
	return err.Error()
}

// commitLocked stamps a new version on the state and returns a copy.
func (p *Poller[T]) commitLocked() Snapshot[T] {
	p.state.Version++
	return p.state
}

// publish hands snap to the listeners unless a newer one got there first.
func (p *Poller[T]) publish(snap Snapshot[T]) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if snap.Version <= p.delivered {
		return
	}
	p.delivered = snap.Version

	p.mu.Lock()
	listeners := p.listeners
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
