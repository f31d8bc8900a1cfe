package goAdmin

import (
	"fmt"
	"time"
)

// LoginType selects the login and OTP endpoints and scopes the persisted
// lockout and attempts records.
type LoginType string

const (
	LoginTypeAdmin  LoginType = "admin"
	LoginTypeEditor LoginType = "editor"
)

// ParseLoginType accepts exactly "admin" or "editor".
func ParseLoginType(s string) (LoginType, error) {
	switch LoginType(s) {
	case LoginTypeAdmin, LoginTypeEditor:
		return LoginType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLoginType, s)
}

func (t LoginType) String() string { return string(t) }

// loginTypeFromAdminFlag maps the verified user's is_admin flag to the
// session login type. The tab chosen before the OTP step is ignored.
func loginTypeFromAdminFlag(isAdmin bool) LoginType {
	if isAdmin {
		return LoginTypeAdmin
	}
	return LoginTypeEditor
}

// Identity is the signed-in operator. UserID is zero and Email/Username are
// empty when the backend did not report them.
type Identity struct {
	Token     string    `json:"token"`
	LoginType LoginType `json:"userType"`
	Email     string    `json:"email,omitempty"`
	UserID    int64     `json:"userId,omitempty"`
	Username  string    `json:"username,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
}

// LockoutState is the evaluated lockout for one login type.
type LockoutState struct {
	LoginType        LoginType `json:"loginType"`
	Locked           bool      `json:"locked"`
	DurationSeconds  int       `json:"durationSeconds"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// OTPChallenge is the pending second step of a login. It lives only in
// memory and is never persisted.
type OTPChallenge struct {
	Email            string    `json:"email"`
	LoginType        LoginType `json:"loginType"`
	ExpiresInMinutes int       `json:"expiresInMinutes"`
	Message          string    `json:"message,omitempty"`
	Code             string    `json:"code"`
	IssuedAt         time.Time `json:"issuedAt"`
}

// ExpiresAt is zero when the backend did not report an expiry.
func (c OTPChallenge) ExpiresAt() time.Time {
	if c.ExpiresInMinutes <= 0 {
		return time.Time{}
	}
	return c.IssuedAt.Add(time.Duration(c.ExpiresInMinutes) * time.Minute)
}

// Remaining is the time left before the code expires, floored at zero.
func (c OTPChallenge) Remaining(now time.Time) time.Duration {
	exp := c.ExpiresAt()
	if exp.IsZero() || !exp.After(now) {
		return 0
	}
	return exp.Sub(now)
}

// LoginOutcome classifies a login submission.
type LoginOutcome int

const (
	// LoginFailed covers failures without lockout or attempts data, and
	// transport failures.
	LoginFailed LoginOutcome = iota
	LoginOTPRequired
	LoginLocked
	LoginInvalidCredentials
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginOTPRequired:
		return "otp_required"
	case LoginLocked:
		return "locked"
	case LoginInvalidCredentials:
		return "invalid_credentials"
	default:
		return "failed"
	}
}

func (o LoginOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// LoginResult is what the login form shows after a submission.
type LoginResult struct {
	Outcome LoginOutcome `json:"outcome"`
	Message string       `json:"message"`
	// Detail is the secondary line, such as "2 attempts remaining".
	Detail            string        `json:"detail,omitempty"`
	RemainingAttempts *int          `json:"remainingAttempts,omitempty"`
	Lockout           LockoutState  `json:"lockout"`
	Challenge         *OTPChallenge `json:"challenge,omitempty"`
}

// OTPResult is what the OTP form shows after a verification.
type OTPResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// ClearCode reports that the entered code was discarded.
	ClearCode     bool          `json:"clearCode"`
	Identity      *Identity     `json:"identity,omitempty"`
	RedirectTo    string        `json:"redirectTo,omitempty"`
	RedirectAfter time.Duration `json:"redirectAfter,omitempty"`
}

// PageState is a snapshot of the login page.
type PageState struct {
	LoginType         LoginType     `json:"loginType"`
	Lockout           LockoutState  `json:"lockout"`
	RemainingAttempts *int          `json:"remainingAttempts,omitempty"`
	Challenge         *OTPChallenge `json:"challenge,omitempty"`
	Busy              bool          `json:"busy"`
}

// Navigator moves the dashboard to another route. message is an optional
// notice for the destination view.
type Navigator interface {
	Navigate(route, message string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route, message string)

func (f NavigatorFunc) Navigate(route, message string) { f(route, message) }

type discardNavigator struct{}

func (discardNavigator) Navigate(string, string) {}
