// Package debounce collapses bursts of trigger events into policy-timed
// invocations of a single action, always carrying the most recent
// payload. It supports leading and trailing edge invocation and a
// maximum wait bound, and is deterministic under an injected clock.
package debounce

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/quellsh/quell/clock"
)

// Engine drives one debounced action. An adapter owns the engine's
// lifetime: it feeds raw events through Trigger and must call Dispose
// exactly once when the owning context is torn down.
//
// All methods are safe for concurrent use. The action is never invoked
// while the engine's lock is held, so it may call back into Trigger,
// Cancel or Dispose without deadlocking. Failures in the action are not
// recovered: bookkeeping completes before the action runs, so a
// panicking action never leaves a timer flag stuck or a stale payload
// behind.
type Engine[T any] struct {
	mu sync.Mutex

	action func(T)
	policy Policy
	clk    clock.Clock

	pending    T
	hasPending bool

	lastInvoke time.Time
	hasInvoked bool

	// Timer handles are nil when no fire is outstanding. The generation
	// counters detect a real timer that won its race against Stop: a
	// fire whose generation no longer matches is stale and ignored.
	trailing    clock.Timer
	trailingGen uint64
	maxWait     clock.Timer
	maxWaitGen  uint64

	disposed bool
}

// Option configures an Engine at construction.
type Option func(*options)

type options struct {
	clk clock.Clock
}

// WithClock substitutes the timer facility, usually a clock.Fake in
// tests.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clk = clk }
}

// New builds an engine invoking action according to policy. The policy
// is validated eagerly; an invalid policy fails here, never at the
// first trigger.
func New[T any](action func(T), policy Policy, opts ...Option) (*Engine[T], error) {
	if action == nil {
		return nil, errors.New("debounce: nil action")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	o := options{clk: clock.System()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine[T]{action: action, policy: policy, clk: o.clk}, nil
}

// Trigger records payload as the pending value and lets the policy
// decide when it is delivered. The engine keeps a single latest-wins
// slot, never a queue: payloads overtaken within a burst are dropped.
// A leading invocation, when due, happens synchronously before Trigger
// returns. Returns ErrDisposed after Dispose.
func (e *Engine[T]) Trigger(payload T) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}

	now := e.clk.Now()
	e.pending = payload
	e.hasPending = true

	// Burst membership is keyed off the last invocation, not the last
	// trigger, so a running burst collapses toward the max-wait cadence
	// once an invocation has happened. The delay timer covers the rest:
	// while it is outstanding the burst is still alive.
	inBurst := e.hasInvoked && now.Sub(e.lastInvoke) < e.policy.Delay

	var leadingPayload T
	doLeading := e.policy.Leading && !inBurst && e.trailing == nil
	if doLeading {
		leadingPayload = e.takeLocked(now)
	}

	// The delay timer is rescheduled on every trigger. With Trailing it
	// carries the quiet-end invocation; with Leading alone it only marks
	// the burst as alive so the leading edge fires once per burst.
	if e.policy.Trailing || e.policy.Leading {
		e.stopTrailingLocked()
		e.trailingGen++
		gen := e.trailingGen
		e.trailing = e.clk.AfterFunc(e.policy.Delay, func() { e.fireTrailing(gen) })
	}

	// The max-wait timer is scheduled once per cycle and left alone by
	// later triggers; only a fire or an invocation clears it. With
	// neither edge enabled there is no emission path, so it is never
	// armed.
	if e.policy.MaxWait > 0 && e.maxWait == nil && (e.policy.Leading || e.policy.Trailing) {
		e.maxWaitGen++
		gen := e.maxWaitGen
		e.maxWait = e.clk.AfterFunc(e.policy.MaxWait, func() { e.fireMaxWait(gen) })
	}
	e.mu.Unlock()

	if doLeading {
		e.action(leadingPayload)
	}
	return nil
}

// Flush delivers the pending payload immediately, if any, cancelling
// all outstanding timers. No-op when nothing is pending. Returns
// ErrDisposed after Dispose.
func (e *Engine[T]) Flush() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	if !e.hasPending {
		e.mu.Unlock()
		return nil
	}
	payload := e.takeLocked(e.clk.Now())
	e.mu.Unlock()

	e.action(payload)
	return nil
}

// Cancel discards the pending payload and stops all outstanding timers
// without invoking. Invocation history is kept, so burst and max-wait
// accounting still reflect the past. Safe to call at any time, including
// from within the action and after Dispose.
func (e *Engine[T]) Cancel() {
	e.mu.Lock()
	e.cancelLocked()
	e.mu.Unlock()
}

// Dispose cancels everything and marks the engine permanently inert:
// subsequent Trigger, Flush and Reconfigure calls return ErrDisposed.
// Idempotent.
func (e *Engine[T]) Dispose() {
	e.mu.Lock()
	e.cancelLocked()
	e.disposed = true
	e.mu.Unlock()
}

// Reconfigure atomically adopts a new policy for subsequent triggers.
// Outstanding timers are cancelled and the pending payload is
// discarded, not flushed. Invocation history survives, so burst
// detection carries across the change. Returns ErrDisposed after
// Dispose.
func (e *Engine[T]) Reconfigure(policy Policy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	e.cancelLocked()
	e.policy = policy
	e.mu.Unlock()
	return nil
}

// Pending reports whether a payload is recorded but not yet delivered.
func (e *Engine[T]) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasPending
}

func (e *Engine[T]) fireTrailing(gen uint64) {
	e.mu.Lock()
	if e.disposed || gen != e.trailingGen {
		e.mu.Unlock()
		return
	}
	e.trailing = nil
	if !e.hasPending || !e.policy.Trailing {
		// Either a leading invocation already consumed the burst and
		// nothing arrived since, or trailing emission is disabled and
		// this fire only marked the burst's end.
		e.mu.Unlock()
		return
	}
	payload := e.takeLocked(e.clk.Now())
	e.mu.Unlock()

	e.action(payload)
}

func (e *Engine[T]) fireMaxWait(gen uint64) {
	e.mu.Lock()
	if e.disposed || gen != e.maxWaitGen {
		e.mu.Unlock()
		return
	}
	e.maxWait = nil
	if !e.hasPending {
		e.mu.Unlock()
		return
	}
	payload := e.takeLocked(e.clk.Now())
	e.mu.Unlock()

	e.action(payload)
}

// takeLocked consumes the pending payload and records an invocation.
// Any invocation resets the max-wait window and supersedes an
// outstanding trailing fire, so both timers are stopped.
func (e *Engine[T]) takeLocked(now time.Time) T {
	payload := e.pending
	var zero T
	e.pending = zero
	e.hasPending = false
	e.lastInvoke = now
	e.hasInvoked = true
	e.stopTrailingLocked()
	e.stopMaxWaitLocked()
	return payload
}

func (e *Engine[T]) cancelLocked() {
	e.stopTrailingLocked()
	e.stopMaxWaitLocked()
	var zero T
	e.pending = zero
	e.hasPending = false
}

func (e *Engine[T]) stopTrailingLocked() {
	if e.trailing != nil {
		e.trailing.Stop()
		e.trailing = nil
	}
	e.trailingGen++
}

func (e *Engine[T]) stopMaxWaitLocked() {
	if e.maxWait != nil {
		e.maxWait.Stop()
		e.maxWait = nil
	}
	e.maxWaitGen++
}
