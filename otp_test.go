package goAdmin

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startChallenge(t *testing.T, env *testEnv, email string) {
	t.Helper()
	res, err := env.tab.Login.Submit(context.Background(), email, "correct")
	if err != nil || res.Outcome != LoginOTPRequired {
		t.Fatalf("submit: %+v err=%v", res, err)
	}
}

func TestVerifyOTPEstablishesSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	startChallenge(t, env, "a@x.com")

	if _, err := env.tab.Login.SetOTPCode("AB12C3"); err != nil {
		t.Fatalf("set code: %v", err)
	}
	res, err := env.tab.Login.VerifyOTP(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Success || res.Identity == nil {
		t.Fatalf("expected success, got %+v", res)
	}

	id := env.tab.Session.Identity()
	if id == nil {
		t.Fatal("session must hold the identity")
	}
	if id.LoginType != LoginTypeAdmin || id.Email != "a@x.com" || id.UserID != 1 || !id.IsAdmin || id.Token == "" {
		t.Fatalf("unexpected identity %+v", id)
	}

	snap := env.mem.Snapshot()
	if snap["accessToken"] != id.Token || snap["userType"] != "admin" || snap["userEmail"] != "a@x.com" ||
		snap["userId"] != "1" || snap["isAdmin"] != "true" {
		t.Fatalf("persisted identity mismatch: %v", snap)
	}
	if env.tab.Login.Challenge() != nil {
		t.Fatal("challenge must be destroyed on success")
	}

	if env.nav.count() != 0 {
		t.Fatal("navigation must wait for the redirect delay")
	}
	env.clock.Advance(999 * time.Millisecond)
	if env.nav.count() != 0 {
		t.Fatal("navigation fired before the delay elapsed")
	}
	env.clock.Advance(time.Millisecond)
	if env.nav.last() != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %q", env.nav.last())
	}
	if res.RedirectTo != "/dashboard" || res.RedirectAfter != time.Second {
		t.Fatalf("unexpected redirect hint %+v", res)
	}
}

func TestVerifyOTPDerivesLoginTypeFromAdminFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// Admin account signing in through the editor tab.
	if _, err := env.tab.Login.SelectLoginType(ctx, LoginTypeEditor); err != nil {
		t.Fatalf("select: %v", err)
	}
	startChallenge(t, env, "a@x.com")
	_, _ = env.tab.Login.SetOTPCode("ab12c3")

	res, err := env.tab.Login.VerifyOTP(ctx)
	if err != nil || !res.Success {
		t.Fatalf("verify: %+v err=%v", res, err)
	}
	if env.tab.Session.Identity().LoginType != LoginTypeAdmin {
		t.Fatal("is_admin=true must yield an admin session whatever tab was selected")
	}
}

func TestVerifyOTPEditorAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.tab.Login.SelectLoginType(ctx, LoginTypeEditor)
	startChallenge(t, env, "e@x.com")
	_, _ = env.tab.Login.SetOTPCode("AB12C3")

	if _, err := env.tab.Login.VerifyOTP(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	id := env.tab.Session.Identity()
	if id.LoginType != LoginTypeEditor || id.IsAdmin || id.Username != "ed" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if env.mem.Snapshot()["isAdmin"] != "false" {
		t.Fatal("isAdmin must persist as false")
	}
}

func TestSetOTPCodeNormalizes(t *testing.T) {
	env := newTestEnv(t)
	startChallenge(t, env, "a@x.com")

	cases := map[string]string{
		"ab12c3":    "AB12C3",
		"ab12c3xyz": "AB12C3",
		"a-b c":     "A-B C",
		"":          "",
	}
	for in, want := range cases {
		got, err := env.tab.Login.SetOTPCode(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q err=%v", in, want, got, err)
		}
	}
}

func TestVerifyOTPRequiresFullCode(t *testing.T) {
	env := newTestEnv(t)
	startChallenge(t, env, "a@x.com")
	_, _ = env.tab.Login.SetOTPCode("AB1")

	if _, err := env.tab.Login.VerifyOTP(context.Background()); !errors.Is(err, ErrOTPIncomplete) {
		t.Fatalf("expected ErrOTPIncomplete, got %v", err)
	}
	if env.api.Requests("verify") != 0 {
		t.Fatal("incomplete code must not reach the backend")
	}
}

func TestVerifyOTPWithoutChallenge(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.tab.Login.VerifyOTP(context.Background()); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge, got %v", err)
	}
}

func TestWrongCodeIsKeptForCorrection(t *testing.T) {
	env := newTestEnv(t)
	startChallenge(t, env, "a@x.com")
	_, _ = env.tab.Login.SetOTPCode("ZZZZZZ")

	res, err := env.tab.Login.VerifyOTP(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Success || res.ClearCode || res.Message != "Invalid OTP" {
		t.Fatalf("unexpected result %+v", res)
	}
	if env.tab.Login.Challenge().Code != "ZZZZZZ" {
		t.Fatal("code must be left for correction")
	}
	if env.tab.Session.Identity() != nil {
		t.Fatal("failed verification must not sign in")
	}
}

func TestExpiredCodeIsCleared(t *testing.T) {
	env := newTestEnv(t)
	startChallenge(t, env, "a@x.com")
	_, _ = env.tab.Login.SetOTPCode("AB12C3")
	env.clock.Advance(3 * time.Minute)

	res, err := env.tab.Login.VerifyOTP(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.ClearCode {
		t.Fatalf("expired code must be cleared, got %+v", res)
	}
	if env.tab.Login.Challenge().Code != "" {
		t.Fatal("stored code must be empty")
	}
	if env.tab.Login.OTPRemaining() != 0 {
		t.Fatal("expiry countdown must read zero once elapsed")
	}
}

func TestOTPCodeExpiredMatching(t *testing.T) {
	for msg, want := range map[string]bool{
		"OTP has EXPIRED":              true,
		"otp does not exist":           true,
		"OTP Does Not Exist for email": true,
		"Invalid OTP":                  false,
		"":                             false,
	} {
		if otpCodeExpired(msg) != want {
			t.Fatalf("%q: expected %v", msg, want)
		}
	}
}

func TestBackDiscardsChallengeWithoutBackend(t *testing.T) {
	env := newTestEnv(t)
	startChallenge(t, env, "a@x.com")
	before := env.api.Requests("verify") + env.api.Requests("login")

	env.tab.Login.Back()
	if env.tab.Login.Challenge() != nil {
		t.Fatal("back must discard the challenge")
	}
	if env.api.Requests("verify")+env.api.Requests("login") != before {
		t.Fatal("back must not contact the backend")
	}
}
