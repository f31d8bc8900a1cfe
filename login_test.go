package goAdmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/backend"
)

func TestSubmitInvalidCredentialsRecordsAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.tab.Login.Submit(ctx, "a@x.com", "wrong")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != LoginInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", res.Outcome)
	}
	if res.Detail != "2 attempts remaining" {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
	if res.Message != "Invalid credentials" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if got := env.mem.Snapshot()["attempts_admin"]; got != "2" {
		t.Fatalf("expected attempts_admin=2, got %q", got)
	}
	if env.client.Metrics().Value(MetricLoginInvalidCredentials) != 1 {
		t.Fatal("invalid credentials metric not incremented")
	}
}

func TestSubmitSuccessOpensOTPChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.tab.Lockout.RecordAttempts(ctx, LoginTypeAdmin, 1)

	res, err := env.tab.Login.Submit(ctx, "a@x.com", "correct")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != LoginOTPRequired || res.Challenge == nil {
		t.Fatalf("expected otp challenge, got %+v", res)
	}
	ch := res.Challenge
	if ch.Email != "a@x.com" || ch.ExpiresInMinutes != 2 || ch.LoginType != LoginTypeAdmin {
		t.Fatalf("unexpected challenge %+v", ch)
	}
	if ch.Remaining(env.clock.Now()).Minutes() != 2 {
		t.Fatalf("expiry countdown must start at 2 minutes, got %v", ch.Remaining(env.clock.Now()))
	}
	if _, ok := env.mem.Snapshot()["attempts_admin"]; ok {
		t.Fatal("successful credentials must clear attempts")
	}
	if env.tab.Login.Challenge() == nil {
		t.Fatal("page must hold the pending challenge")
	}
}

func TestSubmitLockedResponseRecordsLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	page := env.tab.Login

	for i := 0; i < 2; i++ {
		if _, err := page.Submit(ctx, "a@x.com", "wrong"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	res, err := page.Submit(ctx, "a@x.com", "wrong")
	if err != nil {
		t.Fatalf("third submit: %v", err)
	}
	if res.Outcome != LoginLocked || res.Message != "Too many failed attempts" {
		t.Fatalf("expected lockout, got %+v", res)
	}
	if !res.Lockout.Locked || res.Lockout.RemainingSeconds != 60 {
		t.Fatalf("expected 60s countdown, got %+v", res.Lockout)
	}
	if res.RemainingAttempts != nil {
		t.Fatal("locked result must not show attempts")
	}

	var rec struct {
		Duration  int   `json:"duration"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(env.mem.Snapshot()["lockout_admin"]), &rec); err != nil {
		t.Fatalf("decode lockout: %v", err)
	}
	if rec.Duration != 60 || rec.Timestamp != env.clock.Now().UnixMilli() {
		t.Fatalf("unexpected lockout record %+v", rec)
	}
	if _, ok := env.mem.Snapshot()["attempts_admin"]; ok {
		t.Fatal("lockout must clear attempts")
	}
	if page.Countdown().Active() != LoginTypeAdmin {
		t.Fatal("countdown must run for the locked login type")
	}
}

func TestSubmitWhileLockedIsRefusedLocally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 30)

	res, err := env.tab.Login.Submit(ctx, "a@x.com", "correct")
	if !errors.Is(err, ErrLoginLocked) {
		t.Fatalf("expected ErrLoginLocked, got %v", err)
	}
	if res == nil || res.Lockout.RemainingSeconds != 30 {
		t.Fatalf("refusal must report the remaining lockout, got %+v", res)
	}
	if env.api.Requests("login") != 0 {
		t.Fatal("a locked submission must not reach the backend")
	}
	if env.client.Metrics().Value(MetricLoginRefusedLocked) != 1 {
		t.Fatal("refused metric not incremented")
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	env := newTestEnv(t)
	page := env.tab.Login
	if err := page.acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := page.Submit(context.Background(), "a@x.com", "correct"); !errors.Is(err, ErrLoginBusy) {
		t.Fatalf("expected ErrLoginBusy, got %v", err)
	}
	page.release()
	if env.api.Requests("login") != 0 {
		t.Fatal("busy submission must not reach the backend")
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cases := []struct {
		email, password string
		want            error
	}{
		{"a@x.com", "", ErrEmptyPassword},
		{"", "pw", ErrInvalidEmail},
		{"not-an-email", "pw", ErrInvalidEmail},
		{"Alice <a@x.com>", "pw", ErrInvalidEmail},
	}
	for _, c := range cases {
		if _, err := env.tab.Login.Submit(ctx, c.email, c.password); !errors.Is(err, c.want) {
			t.Fatalf("%q/%q: expected %v, got %v", c.email, c.password, c.want, err)
		}
	}
	if env.api.Requests("login") != 0 {
		t.Fatal("invalid input must not reach the backend")
	}
}

func TestSubmitOtherFailureWritesNoState(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.tab.Login.Submit(context.Background(), "nobody@x.com", "pw")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != LoginFailed || res.Message != "Invalid credentials" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(env.mem.Snapshot()) != 0 {
		t.Fatalf("no state may be written, got %v", env.mem.Snapshot())
	}
}

func TestSubmitTransportFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()
	env := newTestEnv(t, func(c *Config) { c.Backend.BaseURL = srv.URL })

	res, err := env.tab.Login.Submit(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("expected backend.ErrUnavailable, got %v", err)
	}
	if res == nil || res.Message != "Login failed. Please try again." {
		t.Fatalf("expected generic message, got %+v", res)
	}
	if len(env.mem.Snapshot()) != 0 {
		t.Fatalf("transport failure must not mutate state, got %v", env.mem.Snapshot())
	}
}

func TestSelectLoginTypeResetsChallengeAndScopesState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	page := env.tab.Login

	if _, err := page.Submit(ctx, "a@x.com", "correct"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = env.tab.Lockout.RecordAttempts(ctx, LoginTypeEditor, 1)

	st, err := page.SelectLoginType(ctx, LoginTypeEditor)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if st.Challenge != nil || page.Challenge() != nil {
		t.Fatal("switching login type must discard the pending challenge")
	}
	if st.LoginType != LoginTypeEditor || st.RemainingAttempts == nil || *st.RemainingAttempts != 1 {
		t.Fatalf("state must be scoped to editor, got %+v", st)
	}
	if _, err := page.SetOTPCode("AB12C3"); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge, got %v", err)
	}
}

func TestSelectLoginTypeRestartsCountdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	page := env.tab.Login
	_ = env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 60)

	if _, err := page.SelectLoginType(ctx, LoginTypeAdmin); err != nil {
		t.Fatalf("select admin: %v", err)
	}
	if page.Countdown().Active() != LoginTypeAdmin {
		t.Fatal("countdown must start for locked admin")
	}
	if _, err := page.SelectLoginType(ctx, LoginTypeEditor); err != nil {
		t.Fatalf("select editor: %v", err)
	}
	if page.Countdown().Active() != "" || env.clock.Pending() != 0 {
		t.Fatal("switching to an unlocked type must tear down the countdown")
	}
}

func TestDisabledLoginTypeCannotBeSelected(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.LoginTypes = []LoginType{LoginTypeAdmin} })
	if _, err := env.tab.Login.SelectLoginType(context.Background(), LoginTypeEditor); !errors.Is(err, ErrLoginTypeDisabled) {
		t.Fatalf("expected ErrLoginTypeDisabled, got %v", err)
	}
	if _, err := env.tab.Login.SelectLoginType(context.Background(), "viewer"); !errors.Is(err, ErrInvalidLoginType) {
		t.Fatalf("expected ErrInvalidLoginType, got %v", err)
	}
}

func TestAttemptsMessage(t *testing.T) {
	if AttemptsMessage(1) != "1 attempt remaining" || AttemptsMessage(3) != "3 attempts remaining" {
		t.Fatal("unexpected attempts wording")
	}
	if FormatCountdown(61) != "1:01" || FormatCountdown(-5) != "0:00" {
		t.Fatal("unexpected countdown format")
	}
}

func TestStateStartsCountdownForStoredLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.tab.Lockout.RecordLockout(ctx, LoginTypeAdmin, 60); err != nil {
		t.Fatalf("record lockout: %v", err)
	}

	page := env.client.OpenTab("", nil).Login
	t.Cleanup(func() { page.close() })
	st, err := page.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !st.Lockout.Locked || st.Lockout.RemainingSeconds != 60 {
		t.Fatalf("expected stored lockout, got %+v", st.Lockout)
	}
	if page.Countdown().Active() != LoginTypeAdmin {
		t.Fatal("loading a locked page must start its countdown")
	}
	if _, err := page.State(ctx); err != nil {
		t.Fatalf("state: %v", err)
	}
	if env.clock.Pending() != 1 {
		t.Fatalf("expected one ticker after repeated reads, got %d", env.clock.Pending())
	}

	env.clock.Advance(60 * time.Second)
	select {
	case got := <-page.Countdown().Updates():
		if got.Locked {
			t.Fatalf("expected unlocked state, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never reported the unlock")
	}
	waitFor(t, "countdown to stop", func() bool { return page.Countdown().Active() == "" })
}
