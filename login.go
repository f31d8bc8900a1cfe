package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/MrEthical07/goAdmin/backend"
	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/store"
)

const (
	genericLoginFailure = "Login failed. Please try again."
	genericOTPFailure   = "OTP verification failed. Please try again."
)

// LoginPage owns the login form of one tab: the selected login type, the
// busy flag, the lockout countdown and the pending OTP challenge.
type LoginPage struct {
	cfg       *Config
	backend   *backend.Client
	store     *store.Store
	policy    *LockoutPolicy
	session   *SessionContext
	nav       Navigator
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *Metrics
	audit     auditEmitter
	countdown *Countdown

	mu        sync.Mutex
	loginType LoginType
	busy      bool
	challenge *OTPChallenge
	redirect  clock.Timer
}

// LoginType returns the selected login type.
func (p *LoginPage) LoginType() LoginType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loginType
}

// Countdown is the page's lockout countdown.
func (p *LoginPage) Countdown() *Countdown {
	return p.countdown
}

// SelectLoginType switches the form to t. Any pending OTP challenge is
// discarded and the countdown restarts for t if it is locked.
func (p *LoginPage) SelectLoginType(ctx context.Context, t LoginType) (PageState, error) {
	if _, err := ParseLoginType(string(t)); err != nil {
		return PageState{}, err
	}
	if !p.cfg.LoginTypeEnabled(t) {
		return PageState{}, fmt.Errorf("%w: %s", ErrLoginTypeDisabled, t)
	}

	p.mu.Lock()
	p.loginType = t
	p.challenge = nil
	p.mu.Unlock()

	if _, err := p.countdown.Start(ctx, t); err != nil {
		return PageState{}, err
	}
	return p.State(ctx)
}

// State reports the current form state, evaluating the stored lockout. A
// locked login type gets its countdown started if none is running for it.
func (p *LoginPage) State(ctx context.Context) (PageState, error) {
	p.mu.Lock()
	st := PageState{LoginType: p.loginType, Busy: p.busy}
	if p.challenge != nil {
		cp := *p.challenge
		st.Challenge = &cp
	}
	p.mu.Unlock()

	lock, err := p.policy.State(ctx, st.LoginType)
	if err != nil {
		return st, err
	}
	st.Lockout = lock
	if lock.Locked && p.countdown.Active() != st.LoginType {
		// A lockout read back from storage needs its countdown too.
		if _, err := p.countdown.Start(ctx, st.LoginType); err != nil {
			return st, err
		}
	}
	if !lock.Locked {
		n, ok, err := p.policy.Attempts(ctx, st.LoginType)
		if err != nil {
			return st, err
		}
		if ok {
			st.RemainingAttempts = &n
		}
	}
	return st, nil
}

func validateCredentials(email, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if email == "" || len(email) > 254 {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// acquire sets the busy flag, failing with ErrLoginBusy if already set.
func (p *LoginPage) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return ErrLoginBusy
	}
	p.busy = true
	return nil
}

func (p *LoginPage) release() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

// Submit sends credentials for the selected login type.
//
// A stored lockout refuses the submission locally with ErrLoginLocked. A
// transport failure returns the generic message and an error wrapping
// backend.ErrUnavailable, and writes no state. Credential failures are not
// errors: they are reported through the result's Outcome. The result is
// non-nil whenever there is a message to show.
func (p *LoginPage) Submit(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	t := p.LoginType()
	lock, err := p.policy.State(ctx, t)
	if err != nil {
		return nil, err
	}
	if lock.Locked {
		p.metrics.Inc(MetricLoginRefusedLocked)
		p.audit.emit(ctx, auditRecord{eventType: auditEventLoginRefused, loginType: t, email: email, err: ErrLoginLocked})
		if p.countdown.Active() != t {
			_, _ = p.countdown.Start(ctx, t)
		}
		return &LoginResult{
			Outcome: LoginLocked,
			Message: lockedMessage(lock.RemainingSeconds),
			Lockout: lock,
		}, fmt.Errorf("%w: %d seconds remaining", ErrLoginLocked, lock.RemainingSeconds)
	}

	resp, err := p.backend.Login(ctx, string(t), backend.Credentials{Email: email, Password: password})
	if err != nil {
		p.metrics.Inc(MetricLoginFailure)
		p.audit.emit(ctx, auditRecord{eventType: auditEventLoginFailure, loginType: t, email: email, err: err})
		p.logger.Warn("login request failed",
			slog.String("login_type", string(t)),
			slog.String("error", err.Error()),
		)
		return &LoginResult{Outcome: LoginFailed, Message: genericLoginFailure, Lockout: lock}, fmt.Errorf("login: %w", err)
	}

	switch {
	case resp.Success:
		return p.otpRequired(ctx, t, email, resp), nil
	case resp.Locked:
		return p.locked(ctx, t, email, resp), nil
	case resp.RemainingAttempts != nil:
		return p.invalidCredentials(ctx, t, email, resp), nil
	default:
		p.metrics.Inc(MetricLoginFailure)
		p.audit.emit(ctx, auditRecord{eventType: auditEventLoginFailure, loginType: t, email: email, err: errors.New(resp.Message)})
		msg := resp.Message
		if msg == "" {
			msg = genericLoginFailure
		}
		return &LoginResult{Outcome: LoginFailed, Message: msg, Lockout: lock}, nil
	}
}

func (p *LoginPage) otpRequired(ctx context.Context, t LoginType, email string, resp *backend.LoginResponse) *LoginResult {
	if err := p.policy.ClearFailureState(ctx, t); err != nil {
		p.logger.Warn("clear failure state failed", slog.String("login_type", string(t)), slog.String("error", err.Error()))
	}
	p.metrics.Inc(MetricLoginOTPRequired)
	p.audit.emit(ctx, auditRecord{eventType: auditEventLoginOTPRequired, loginType: t, email: email, success: true})

	confirm := resp.Email
	if confirm == "" {
		confirm = email
	}
	ch := &OTPChallenge{
		Email:            confirm,
		LoginType:        t,
		ExpiresInMinutes: resp.ExpiresInMinutes,
		Message:          resp.Message,
		IssuedAt:         p.clock.Now(),
	}

	res := &LoginResult{Outcome: LoginOTPRequired, Message: resp.Message, Lockout: LockoutState{LoginType: t}}
	p.mu.Lock()
	// A reply for a login type the operator already switched away from
	// must not resurrect its challenge.
	if p.loginType == t {
		p.challenge = ch
		cp := *ch
		res.Challenge = &cp
	}
	p.mu.Unlock()
	p.countdown.Stop()
	return res
}

func (p *LoginPage) locked(ctx context.Context, t LoginType, email string, resp *backend.LoginResponse) *LoginResult {
	if err := p.policy.RecordLockout(ctx, t, resp.LockoutDuration); err != nil {
		p.logger.Warn("record lockout failed", slog.String("login_type", string(t)), slog.String("error", err.Error()))
	}
	p.metrics.Inc(MetricLoginLocked)
	p.audit.emit(ctx, auditRecord{
		eventType: auditEventLoginLocked,
		loginType: t,
		email:     email,
		metadata: func() map[string]string {
			return map[string]string{"lockout_duration": fmt.Sprint(resp.LockoutDuration)}
		},
	})

	var lock LockoutState
	if p.LoginType() == t {
		lock, _ = p.countdown.Start(ctx, t)
	} else {
		lock, _ = p.policy.State(ctx, t)
	}
	msg := resp.Message
	if msg == "" {
		msg = lockedMessage(lock.RemainingSeconds)
	}
	return &LoginResult{Outcome: LoginLocked, Message: msg, Lockout: lock}
}

func (p *LoginPage) invalidCredentials(ctx context.Context, t LoginType, email string, resp *backend.LoginResponse) *LoginResult {
	n := *resp.RemainingAttempts
	if err := p.policy.RecordAttempts(ctx, t, n); err != nil {
		p.logger.Warn("record attempts failed", slog.String("login_type", string(t)), slog.String("error", err.Error()))
	}
	p.metrics.Inc(MetricLoginInvalidCredentials)
	p.audit.emit(ctx, auditRecord{
		eventType: auditEventLoginFailure,
		loginType: t,
		email:     email,
		err:       errors.New(resp.Message),
		metadata: func() map[string]string {
			return map[string]string{"remaining_attempts": fmt.Sprint(n)}
		},
	})
	return &LoginResult{
		Outcome:           LoginInvalidCredentials,
		Message:           resp.Message,
		Detail:            AttemptsMessage(n),
		RemainingAttempts: &n,
		Lockout:           LockoutState{LoginType: t},
	}
}

// AttemptsMessage renders the remaining-attempts notice.
func AttemptsMessage(n int) string {
	if n == 1 {
		return "1 attempt remaining"
	}
	return fmt.Sprintf("%d attempts remaining", n)
}

func lockedMessage(remaining int) string {
	return fmt.Sprintf("Too many failed attempts. Try again in %s.", FormatCountdown(remaining))
}

// FormatCountdown renders seconds as m:ss.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
