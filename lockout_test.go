package goAdmin

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestRecordLockoutThenStateReportsFullDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.tab.Lockout

	for _, lt := range []LoginType{LoginTypeAdmin, LoginTypeEditor} {
		for _, d := range []int{1, 60, 900} {
			if err := p.RecordLockout(ctx, lt, d); err != nil {
				t.Fatalf("record: %v", err)
			}
			st, err := p.State(ctx, lt)
			if err != nil {
				t.Fatalf("state: %v", err)
			}
			if !st.Locked || st.RemainingSeconds != d || st.DurationSeconds != d {
				t.Fatalf("%s/%d: unexpected state %+v", lt, d, st)
			}
		}
	}
}

func TestRecordLockoutClearsAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.tab.Lockout

	if err := p.RecordAttempts(ctx, LoginTypeAdmin, 2); err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if err := p.RecordLockout(ctx, LoginTypeAdmin, 60); err != nil {
		t.Fatalf("lockout: %v", err)
	}
	if _, ok, _ := p.Attempts(ctx, LoginTypeAdmin); ok {
		t.Fatal("attempts must be absent after a lockout is recorded")
	}
}

func TestRecordAttemptsLeavesLockoutAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.tab.Lockout

	_ = p.RecordLockout(ctx, LoginTypeAdmin, 60)
	_ = p.RecordAttempts(ctx, LoginTypeAdmin, 1)
	if st, _ := p.State(ctx, LoginTypeAdmin); !st.Locked {
		t.Fatal("recording attempts must not clear a lockout")
	}
}

func TestClearFailureStateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.tab.Lockout

	_ = p.RecordLockout(ctx, LoginTypeEditor, 60)
	_ = p.RecordAttempts(ctx, LoginTypeEditor, 2)
	for i := 0; i < 2; i++ {
		if err := p.ClearFailureState(ctx, LoginTypeEditor); err != nil {
			t.Fatalf("clear %d: %v", i, err)
		}
	}
	if len(env.mem.Snapshot()) != 0 {
		t.Fatalf("expected empty storage, got %v", env.mem.Snapshot())
	}
}

func TestExpiredLockoutIsDeletedOnRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const d = 60
	now := env.clock.Now().UnixMilli()
	raw := `{"duration":60,"timestamp":` + strconv.FormatInt(now-(d+1)*1000, 10) + `}`
	_ = env.mem.Set(ctx, "lockout_admin", raw)

	st, err := env.tab.Lockout.State(ctx, LoginTypeAdmin)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Locked {
		t.Fatalf("expected unlocked, got %+v", st)
	}
	if _, ok, _ := env.mem.Get(ctx, "lockout_admin"); ok {
		t.Fatal("expired record must be deleted as a side effect")
	}
}

func TestRemainingUsesFlooredElapsedSeconds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 10)

	env.clock.Advance(2999 * time.Millisecond)
	st, _ := env.tab.Lockout.State(ctx, LoginTypeAdmin)
	if st.RemainingSeconds != 8 {
		t.Fatalf("expected 8 remaining after 2.999s, got %d", st.RemainingSeconds)
	}
	env.clock.Advance(7001 * time.Millisecond)
	st, _ = env.tab.Lockout.State(ctx, LoginTypeAdmin)
	if st.Locked {
		t.Fatalf("expected unlocked at exactly the duration, got %+v", st)
	}
}

func TestCorruptRecordsAreDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.mem.Set(ctx, "lockout_admin", "{broken")
	_ = env.mem.Set(ctx, "attempts_admin", "many")

	if st, err := env.tab.Lockout.State(ctx, LoginTypeAdmin); err != nil || st.Locked {
		t.Fatalf("corrupt lockout must read as unlocked: %+v err=%v", st, err)
	}
	if _, ok, err := env.tab.Lockout.Attempts(ctx, LoginTypeAdmin); err != nil || ok {
		t.Fatalf("corrupt attempts must read as absent: ok=%v err=%v", ok, err)
	}
	if len(env.mem.Snapshot()) != 0 {
		t.Fatalf("corrupt records must be deleted, got %v", env.mem.Snapshot())
	}
}

func TestCountdownTicksToUnlockedAndStops(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 3)

	cd := env.tab.Lockout.NewCountdown()
	defer cd.Stop()
	st, err := cd.Start(ctx, LoginTypeAdmin)
	if err != nil || !st.Locked || st.RemainingSeconds != 3 {
		t.Fatalf("start: %+v err=%v", st, err)
	}
	if env.clock.Pending() != 1 {
		t.Fatalf("expected one armed ticker, got %d", env.clock.Pending())
	}

	var seen []int
	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Second)
		select {
		case st := <-cd.Updates():
			seen = append(seen, st.RemainingSeconds)
			if !st.Locked {
				if i != 2 {
					t.Fatalf("unlocked too early at tick %d", i)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no update after tick %d (seen %v)", i, seen)
		}
	}
	if seen[0] != 2 || seen[1] != 1 || seen[2] != 0 {
		t.Fatalf("unexpected countdown %v", seen)
	}
	waitFor(t, "countdown to stop", func() bool { return cd.Active() == "" && env.clock.Pending() == 0 })

	env.clock.Advance(5 * time.Second)
	select {
	case st := <-cd.Updates():
		t.Fatalf("unexpected update after unlock: %+v", st)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownStartCancelsPreviousRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 60)
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeEditor, 60)

	cd := env.tab.Lockout.NewCountdown()
	defer cd.Stop()
	_, _ = cd.Start(ctx, LoginTypeAdmin)
	_, _ = cd.Start(ctx, LoginTypeEditor)

	if env.clock.Pending() != 1 {
		t.Fatalf("expected exactly one ticker, got %d", env.clock.Pending())
	}
	if cd.Active() != LoginTypeEditor {
		t.Fatalf("expected editor countdown, got %q", cd.Active())
	}

	env.clock.Advance(time.Second)
	select {
	case st := <-cd.Updates():
		if st.LoginType != LoginTypeEditor {
			t.Fatalf("cancelled admin countdown published %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update from editor countdown")
	}

	cd.Stop()
	if env.clock.Pending() != 0 || cd.Active() != "" {
		t.Fatal("stop must disarm the ticker")
	}
}

func TestCountdownForUnlockedTypeDoesNotTick(t *testing.T) {
	env := newTestEnv(t)
	cd := env.tab.Lockout.NewCountdown()
	st, err := cd.Start(context.Background(), LoginTypeAdmin)
	if err != nil || st.Locked {
		t.Fatalf("unexpected %+v err=%v", st, err)
	}
	if env.clock.Pending() != 0 {
		t.Fatal("no ticker for an unlocked login type")
	}
}
