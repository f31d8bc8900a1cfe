package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Time stands still until Advance or
// Set is called; timers and tickers whose deadlines are crossed fire
// during that call, in deadline order.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	interval time.Duration
	ch       chan time.Time
	fn       func()
	stopped  bool
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc runs fn synchronously inside Advance. A non-positive d runs
// fn before AfterFunc returns.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d <= 0 {
		fn()
		return &fakeTimer{clock: f, w: &fakeWaiter{stopped: true}}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), fn: fn}
	f.waiters = append(f.waiters, w)
	return &fakeTimer{clock: f, w: w}
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), interval: d, ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	return &fakeTicker{clock: f, w: w}
}

// Pending reports how many timers and tickers are still armed.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

// Set moves the clock to t without firing anything. Use it to fabricate
// stored timestamps in the past or future.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is crossed. Tickers fire once per crossed interval; sends on
// a full tick channel are dropped.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		w := f.nextDueLocked(target)
		if w == nil {
			break
		}
		f.now = w.deadline
		if w.interval > 0 {
			w.deadline = w.deadline.Add(w.interval)
			select {
			case w.ch <- f.now:
			default:
			}
			continue
		}
		w.stopped = true
		fn := w.fn
		f.mu.Unlock()
		fn()
		f.mu.Lock()
	}
	f.now = target
	f.compactLocked()
	f.mu.Unlock()
}

func (f *Fake) nextDueLocked(target time.Time) *fakeWaiter {
	live := make([]*fakeWaiter, 0, len(f.waiters))
	for _, w := range f.waiters {
		if !w.stopped && !w.deadline.After(target) {
			live = append(live, w)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].deadline.Before(live[j].deadline) })
	return live[0]
}

func (f *Fake) compactLocked() {
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.stopped {
			kept = append(kept, w)
		}
	}
	f.waiters = kept
}

type fakeTimer struct {
	clock *Fake
	w     *fakeWaiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.w.stopped {
		return false
	}
	t.w.stopped = true
	return true
}

type fakeTicker struct {
	clock *Fake
	w     *fakeWaiter
}

func (t *fakeTicker) C() <-chan time.Time { return t.w.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	t.w.stopped = true
	t.clock.mu.Unlock()
}
