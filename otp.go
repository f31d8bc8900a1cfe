package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/backend"
)

// Challenge returns a copy of the pending OTP challenge, or nil.
func (p *LoginPage) Challenge() *OTPChallenge {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.challenge == nil {
		return nil
	}
	cp := *p.challenge
	return &cp
}

// SetOTPCode stores raw as the entered code, upper-cased and truncated to
// the configured length. Nothing else is filtered. It returns the stored code.
func (p *LoginPage) SetOTPCode(raw string) (string, error) {
	code := normalizeOTP(raw, p.cfg.OTP.CodeLength)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.challenge == nil {
		return "", ErrNoChallenge
	}
	p.challenge.Code = code
	return code, nil
}

func normalizeOTP(raw string, length int) string {
	r := []rune(strings.ToUpper(raw))
	if len(r) > length {
		r = r[:length]
	}
	return string(r)
}

// otpCodeExpired matches backend messages after which the code is useless.
func otpCodeExpired(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "expired") || strings.Contains(m, "does not exist")
}

// VerifyOTP submits the entered code. On success the identity is persisted,
// published to the session, and navigation to the dashboard is scheduled
// after the configured redirect delay. A rejected code is reported through
// the result, not as an error.
func (p *LoginPage) VerifyOTP(ctx context.Context) (*OTPResult, error) {
	p.mu.Lock()
	if p.challenge == nil {
		p.mu.Unlock()
		return nil, ErrNoChallenge
	}
	if p.busy {
		p.mu.Unlock()
		return nil, ErrLoginBusy
	}
	if len([]rune(p.challenge.Code)) != p.cfg.OTP.CodeLength {
		p.mu.Unlock()
		return nil, ErrOTPIncomplete
	}
	p.busy = true
	ch := *p.challenge
	p.mu.Unlock()
	defer p.release()

	resp, err := p.backend.VerifyOTP(ctx, string(ch.LoginType), backend.OTPRequest{Email: ch.Email, OTP: ch.Code})
	if err != nil {
		p.metrics.Inc(MetricOTPFailure)
		p.audit.emit(ctx, auditRecord{eventType: auditEventOTPFailure, loginType: ch.LoginType, email: ch.Email, err: err})
		p.logger.Warn("otp request failed",
			slog.String("login_type", string(ch.LoginType)),
			slog.String("error", err.Error()),
		)
		return &OTPResult{Message: genericOTPFailure}, fmt.Errorf("verify otp: %w", err)
	}

	if !resp.Success || resp.Token == "" {
		return p.otpRejected(ctx, ch, resp), nil
	}
	return p.otpAccepted(ctx, ch, resp), nil
}

func (p *LoginPage) otpRejected(ctx context.Context, ch OTPChallenge, resp *backend.VerifyResponse) *OTPResult {
	p.metrics.Inc(MetricOTPFailure)
	msg := resp.Message
	if msg == "" {
		msg = genericOTPFailure
	}
	p.audit.emit(ctx, auditRecord{eventType: auditEventOTPFailure, loginType: ch.LoginType, email: ch.Email, err: errors.New(msg)})

	res := &OTPResult{Message: msg}
	if otpCodeExpired(resp.Message) {
		p.mu.Lock()
		if p.challenge != nil && p.challenge.Email == ch.Email && p.challenge.LoginType == ch.LoginType {
			p.challenge.Code = ""
		}
		p.mu.Unlock()
		res.ClearCode = true
	}
	return res
}

func (p *LoginPage) otpAccepted(ctx context.Context, ch OTPChallenge, resp *backend.VerifyResponse) *OTPResult {
	var user backend.User
	if resp.User != nil {
		user = *resp.User
	}
	id := Identity{
		Token:     resp.Token,
		LoginType: loginTypeFromAdminFlag(user.IsAdmin),
		Email:     user.Email,
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	}
	if id.Email == "" {
		id.Email = ch.Email
	}
	if id.LoginType != ch.LoginType {
		p.logger.Warn("verified login type differs from selected tab",
			slog.String("selected", string(ch.LoginType)),
			slog.String("verified", string(id.LoginType)),
		)
	}

	if err := p.store.SaveIdentity(ctx, recordFromIdentity(id)); err != nil {
		p.logger.Error("persist identity failed", slog.String("error", err.Error()))
	}
	p.session.Login(id)

	p.metrics.Inc(MetricOTPSuccess)
	p.audit.emit(ctx, auditRecord{
		eventType: auditEventOTPSuccess,
		loginType: id.LoginType,
		email:     id.Email,
		userID:    id.UserID,
		success:   true,
		metadata: func() map[string]string {
			return map[string]string{"selected_login_type": string(ch.LoginType)}
		},
	})

	delay := p.cfg.OTP.RedirectDelay
	dest := p.cfg.Routes.Dashboard
	p.mu.Lock()
	p.challenge = nil
	prev := p.redirect
	p.redirect = nil
	p.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	timer := p.clock.AfterFunc(delay, func() { p.nav.Navigate(dest, "") })
	p.mu.Lock()
	p.redirect = timer
	p.mu.Unlock()

	msg := resp.Message
	if msg == "" {
		msg = "Login successful."
	}
	out := id
	return &OTPResult{
		Success:       true,
		Message:       msg,
		Identity:      &out,
		RedirectTo:    dest,
		RedirectAfter: delay,
	}
}

// Back abandons the pending challenge without contacting the backend.
func (p *LoginPage) Back() {
	p.mu.Lock()
	p.challenge = nil
	p.mu.Unlock()
}

// OTPRemaining is the time left on the pending challenge, or zero.
func (p *LoginPage) OTPRemaining() time.Duration {
	ch := p.Challenge()
	if ch == nil {
		return 0
	}
	return ch.Remaining(p.clock.Now())
}

// close stops the page's timers.
func (p *LoginPage) close() {
	p.countdown.Stop()
	p.mu.Lock()
	if p.redirect != nil {
		p.redirect.Stop()
		p.redirect = nil
	}
	p.mu.Unlock()
}
