package goAdmin

import "errors"

var (
	// ErrLoginLocked is returned when a stored lockout refuses the submission
	// without contacting the backend.
	ErrLoginLocked = errors.New("login locked")
	// ErrLoginBusy is returned while a login or OTP request is outstanding.
	ErrLoginBusy = errors.New("login request already in progress")
	// ErrOTPIncomplete is returned when the entered code is shorter than required.
	ErrOTPIncomplete = errors.New("otp code incomplete")
	// ErrNoChallenge is returned for OTP operations without a pending challenge.
	ErrNoChallenge = errors.New("no pending otp challenge")

	ErrInvalidEmail      = errors.New("invalid email")
	ErrEmptyPassword     = errors.New("password required")
	ErrInvalidLoginType  = errors.New("invalid login type")
	ErrLoginTypeDisabled = errors.New("login type disabled")

	// ErrStorage wraps persisted-storage failures surfaced to callers.
	ErrStorage = errors.New("storage failure")
)
