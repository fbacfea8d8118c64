package clock

import (
	"sync"
	"time"
)

// Fake is a manual Clock for deterministic tests. Time only moves when
// Advance or Set is called, and due callbacks run synchronously on the
// calling goroutine in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clk      *Fake
	deadline time.Time
	seq      int
	fn       func()
}

// NewFake returns a Fake positioned at the Unix epoch.
func NewFake() *Fake {
	return NewFakeAt(time.Unix(0, 0).UTC())
}

// NewFakeAt returns a Fake positioned at t.
func NewFakeAt(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{clk: f, deadline: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls inside the window. Callbacks run on the calling goroutine and may
// schedule further timers; those fire too if they come due within d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.advanceLocked(f.now.Add(d))
	f.mu.Unlock()
}

// Set jumps the clock to t, firing due timers the same way Advance does.
// Moving backwards is a no-op for timers.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.advanceLocked(t)
	f.mu.Unlock()
}

func (f *Fake) advanceLocked(end time.Time) {
	for {
		t := f.nextDueLocked(end)
		if t == nil {
			break
		}
		if t.deadline.After(f.now) {
			f.now = t.deadline
		}
		f.removeLocked(t)
		f.mu.Unlock()
		t.fn()
		f.mu.Lock()
	}
	if end.After(f.now) {
		f.now = end
	}
}

// Pending reports the number of scheduled timers that have neither fired
// nor been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) nextDueLocked(end time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range f.timers {
		if t.deadline.After(end) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) ||
			(t.deadline.Equal(due.deadline) && t.seq < due.seq) {
			due = t
		}
	}
	return due
}

func (f *Fake) removeLocked(t *fakeTimer) bool {
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	return t.clk.removeLocked(t)
}
