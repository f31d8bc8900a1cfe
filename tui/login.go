package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldEmail = iota
	fieldPassword
)

func (m Model) openLogin() (Model, tea.Cmd) {
	m.focus = fieldEmail
	m.identity = nil
	m.current = ""
	m.items = nil
	cmd := m.setFocus()
	page := m.tab.Login
	return m, tea.Batch(cmd, func() tea.Msg {
		st, err := page.State(context.Background())
		return pageStateMsg{state: st, err: err}
	})
}

func (m *Model) setFocus() tea.Cmd {
	m.email.Blur()
	m.password.Blur()
	m.otp.Blur()
	switch {
	case m.page.Challenge != nil:
		return m.otp.Focus()
	case m.focus == fieldPassword:
		return m.password.Focus()
	default:
		return m.email.Focus()
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.page.Challenge != nil:
		m.otp, cmd = m.otp.Update(msg)
	case m.focus == fieldPassword:
		m.password, cmd = m.password.Update(msg)
	default:
		m.email, cmd = m.email.Update(msg)
	}
	return m, cmd
}

func (m Model) updateLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchType):
		return m.switchLoginType()
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		m.focus = 1 - m.focus
		return m, m.setFocus()
	case key.Matches(msg, m.keys.Submit):
		if m.focus == fieldEmail {
			m.focus = fieldPassword
			return m, m.setFocus()
		}
		return m.submitLogin()
	}
	return m.updateInputs(msg)
}

func (m Model) switchLoginType() (tea.Model, tea.Cmd) {
	if len(m.loginTypes) < 2 || m.busy {
		return m, nil
	}
	next := m.loginTypes[0]
	for i, t := range m.loginTypes {
		if t == m.page.LoginType {
			next = m.loginTypes[(i+1)%len(m.loginTypes)]
		}
	}
	m.page = goAdmin.PageState{LoginType: next}
	m.status, m.detail = "", ""
	page := m.tab.Login
	return m, func() tea.Msg {
		st, err := page.SelectLoginType(context.Background(), next)
		return pageStateMsg{state: st, err: err}
	}
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if m.page.Lockout.Locked {
		m.status = lockoutMessage(m.page.Lockout)
		m.statusErr = true
		return m, nil
	}
	m.busy = true
	m.status, m.detail = "", ""
	page, email, password := m.tab.Login, m.email.Value(), m.password.Value()
	return m, func() tea.Msg {
		res, err := page.Submit(context.Background(), email, password)
		return loginDoneMsg{res: res, err: err}
	}
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.statusErr = true
	switch {
	case errors.Is(msg.err, goAdmin.ErrInvalidEmail):
		m.status = "Enter a valid email address."
		return m, nil
	case errors.Is(msg.err, goAdmin.ErrEmptyPassword):
		m.status = "Enter your password."
		return m, nil
	case errors.Is(msg.err, goAdmin.ErrLoginBusy):
		return m, nil
	case msg.res == nil:
		m.status = "Login failed. Please try again."
		return m, nil
	}

	res := msg.res
	m.status, m.detail = res.Message, res.Detail
	m.page.Lockout = res.Lockout
	m.page.RemainingAttempts = res.RemainingAttempts
	m.password.SetValue("")

	if res.Outcome == goAdmin.LoginOTPRequired && res.Challenge != nil {
		m.statusErr = false
		m.page.Challenge = res.Challenge
		m.page.RemainingAttempts = nil
		m.otp.SetValue("")
		cmd := m.setFocus()
		return m, tea.Batch(cmd, otpTick())
	}
	return m, nil
}

func (m Model) handleCountdown(msg countdownMsg) (tea.Model, tea.Cmd) {
	listen := listenCountdown(m.tab.Login.Countdown().Updates())
	if msg.state.LoginType != m.page.LoginType {
		return m, listen
	}
	wasLocked := m.page.Lockout.Locked
	m.page.Lockout = msg.state
	if wasLocked && !msg.state.Locked {
		m.status, m.detail = "", ""
		var cmd tea.Cmd
		m, cmd = m.showToast("You can try logging in again.")
		return m, tea.Batch(cmd, listen)
	}
	if msg.state.Locked && m.statusErr {
		m.status = lockoutMessage(msg.state)
	}
	return m, listen
}

func lockoutMessage(st goAdmin.LockoutState) string {
	return fmt.Sprintf("Too many failed attempts. Try again in %s.", goAdmin.FormatCountdown(st.RemainingSeconds))
}

/*
====================================
OTP
====================================
*/

func otpTick() tea.Cmd {
	return tea.Tick(otpTickInterval, func(time.Time) tea.Msg { return otpTickMsg{} })
}

func (m Model) updateOTPKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.busy {
			return m, nil
		}
		m.tab.Login.Back()
		m.page.Challenge = nil
		m.status, m.detail = "", ""
		return m, m.setFocus()
	case key.Matches(msg, m.keys.Submit):
		return m.submitOTP()
	}

	var cmd tea.Cmd
	m.otp, cmd = m.otp.Update(msg)
	if code, err := m.tab.Login.SetOTPCode(m.otp.Value()); err == nil {
		m.otp.SetValue(code)
		m.page.Challenge = withCode(m.page.Challenge, code)
	}
	return m, cmd
}

// withCode copies ch so earlier model values keep their code.
func withCode(ch *goAdmin.OTPChallenge, code string) *goAdmin.OTPChallenge {
	if ch == nil {
		return nil
	}
	cp := *ch
	cp.Code = code
	return &cp
}

func (m Model) submitOTP() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if _, err := m.tab.Login.SetOTPCode(m.otp.Value()); err != nil {
		m.page.Challenge = nil
		return m, m.setFocus()
	}
	m.busy = true
	page := m.tab.Login
	return m, func() tea.Msg {
		res, err := page.VerifyOTP(context.Background())
		return otpDoneMsg{res: res, err: err}
	}
}

func (m Model) handleOTPDone(msg otpDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.statusErr = true
	switch {
	case errors.Is(msg.err, goAdmin.ErrOTPIncomplete):
		m.status = fmt.Sprintf("Enter all %d characters of the code.", m.otp.CharLimit)
		return m, nil
	case errors.Is(msg.err, goAdmin.ErrNoChallenge):
		m.page.Challenge = nil
		return m, m.setFocus()
	case msg.res == nil:
		return m, nil
	}

	res := msg.res
	m.status = res.Message
	if res.Success {
		m.statusErr = false
		m.page.Challenge = nil
		m.email.SetValue("")
		m.otp.SetValue("")
		return m, nil
	}
	if res.ClearCode {
		m.otp.SetValue("")
		m.page.Challenge = withCode(m.page.Challenge, "")
	}
	return m, nil
}

// otpExpiry renders the time left on the pending code.
func (m Model) otpExpiry() string {
	left := m.tab.Login.OTPRemaining()
	if left <= 0 {
		return ""
	}
	return goAdmin.FormatCountdown(int(left.Round(time.Second) / time.Second))
}
