package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/store"
)

// LockoutPolicy evaluates and records per login type failure state.
type LockoutPolicy struct {
	store  *store.Store
	clock  clock.Clock
	logger *slog.Logger
	tick   time.Duration
}

func newLockoutPolicy(s *store.Store, clk clock.Clock, logger *slog.Logger, tick time.Duration) *LockoutPolicy {
	return &LockoutPolicy{store: s, clock: clk, logger: logger, tick: tick}
}

// State evaluates the stored lockout for t. An expired or unreadable record
// is deleted and reported as unlocked.
func (p *LockoutPolicy) State(ctx context.Context, t LoginType) (LockoutState, error) {
	st := LockoutState{LoginType: t}
	rec, ok, err := p.store.LoadLockout(ctx, string(t))
	if err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			return st, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		p.logger.Warn("discarding unreadable lockout record",
			slog.String("login_type", string(t)),
			slog.String("error", err.Error()),
		)
		ok = true
		rec = store.LockoutRecord{}
	}
	if !ok {
		return st, nil
	}

	remaining := remainingSeconds(rec, p.clock.Now())
	if remaining <= 0 {
		if err := p.store.DeleteLockout(ctx, string(t)); err != nil {
			return st, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return st, nil
	}
	st.Locked = true
	st.DurationSeconds = rec.Duration
	st.RemainingSeconds = remaining
	return st, nil
}

// remainingSeconds is duration - floor(elapsed ms / 1000).
func remainingSeconds(rec store.LockoutRecord, now time.Time) int {
	elapsedMs := now.UnixMilli() - rec.Timestamp
	elapsed := elapsedMs / 1000
	if elapsedMs < 0 && elapsedMs%1000 != 0 {
		elapsed--
	}
	return int(int64(rec.Duration) - elapsed)
}

// RecordLockout stores a lockout starting now and drops the attempts record.
func (p *LockoutPolicy) RecordLockout(ctx context.Context, t LoginType, durationSeconds int) error {
	rec := store.LockoutRecord{Duration: durationSeconds, Timestamp: p.clock.Now().UnixMilli()}
	if err := p.store.SaveLockout(ctx, string(t), rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := p.store.DeleteAttempts(ctx, string(t)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// RecordAttempts stores the remaining attempts. An existing lockout is left
// alone; the backend does not report attempts while locked.
func (p *LockoutPolicy) RecordAttempts(ctx context.Context, t LoginType, remaining int) error {
	if err := p.store.SaveAttempts(ctx, string(t), remaining); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// ClearFailureState deletes both records for t. Idempotent.
func (p *LockoutPolicy) ClearFailureState(ctx context.Context, t LoginType) error {
	if err := p.store.DeleteLockout(ctx, string(t)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := p.store.DeleteAttempts(ctx, string(t)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Attempts returns the stored remaining attempts for t. An unreadable
// record is deleted and reported as absent.
func (p *LockoutPolicy) Attempts(ctx context.Context, t LoginType) (int, bool, error) {
	n, ok, err := p.store.LoadAttempts(ctx, string(t))
	if err == nil {
		return n, ok, nil
	}
	if !errors.Is(err, store.ErrCorrupt) {
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	p.logger.Warn("discarding unreadable attempts record",
		slog.String("login_type", string(t)),
		slog.String("error", err.Error()),
	)
	if err := p.store.DeleteAttempts(ctx, string(t)); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return 0, false, nil
}

// NewCountdown returns an idle countdown bound to p.
func (p *LockoutPolicy) NewCountdown() *Countdown {
	return &Countdown{policy: p, updates: make(chan LockoutState, 1)}
}

// Countdown re-evaluates one login type's lockout on every tick and
// publishes the result. It runs at most one ticker: Start cancels the
// previous run, and the run ends by itself after publishing the unlocked
// state.
//
// Updates has room for one state; an unread state is replaced by the next.
type Countdown struct {
	policy  *LockoutPolicy
	updates chan LockoutState

	mu     sync.Mutex
	gen    uint64
	ticker clock.Ticker
	stop   chan struct{}
	active LoginType
}

// Start evaluates t and, if it is locked, begins ticking. Any countdown
// already running is cancelled first, whatever its login type.
func (c *Countdown) Start(ctx context.Context, t LoginType) (LockoutState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	st, err := c.policy.State(ctx, t)
	if err != nil || !st.Locked {
		return st, err
	}

	c.gen++
	c.ticker = c.policy.clock.NewTicker(c.policy.tick)
	c.stop = make(chan struct{})
	c.active = t
	go c.run(t, c.gen, c.ticker, c.stop)
	return st, nil
}

func (c *Countdown) run(t LoginType, gen uint64, ticker clock.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}

		// The request that started the countdown is long gone.
		st, err := c.policy.State(context.Background(), t)
		if err != nil {
			c.policy.logger.Warn("lockout countdown tick failed",
				slog.String("login_type", string(t)),
				slog.String("error", err.Error()),
			)
			continue
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		c.publishLocked(st)
		if !st.Locked {
			c.stopLocked()
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *Countdown) publishLocked(st LockoutState) {
	select {
	case c.updates <- st:
		return
	default:
	}
	select {
	case <-c.updates:
	default:
	}
	c.updates <- st
}

// Stop cancels the running countdown, if any.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *Countdown) stopLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stop)
	c.ticker = nil
	c.stop = nil
	c.active = ""
	c.gen++
}

// Active returns the login type being counted down, or "" when idle.
func (c *Countdown) Active() LoginType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Updates delivers each re-evaluated state, ending with an unlocked one.
func (c *Countdown) Updates() <-chan LockoutState {
	return c.updates
}
