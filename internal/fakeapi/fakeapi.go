// Package fakeapi is an in-process implementation of the content backend's
// REST contract: login with attempts and lockout, OTP verification, bearer
// token probing and section listings.
//
// Tokens are HS256 JWTs. The server is deterministic when given a clock
// function and an OTP generator, which is how the tests drive it.
package fakeapi

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Account is one operator known to the fake backend.
type Account struct {
	ID       int64
	Email    string
	Password string
	Username string
	IsAdmin  bool
}

type accountState struct {
	Account
	failures    int
	lockedUntil time.Time
}

type pendingOTP struct {
	code      string
	loginType string
	expiresAt time.Time
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*accountState
	otps     map[string]pendingOTP
	revoked  map[string]bool
	sections map[string][]map[string]any

	secret          []byte
	now             func() time.Time
	newOTP          func() string
	maxAttempts     int
	lockoutDuration time.Duration
	otpTTL          time.Duration
	tokenTTL        time.Duration

	probeStatus int
	requests    map[string]int
}

// Option customises a fake [Server].
type Option func(*Server)

// WithClock sets the time source for lockouts, OTPs and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithOTPGenerator fixes the codes handed out on successful logins.
func WithOTPGenerator(gen func() string) Option {
	return func(s *Server) { s.newOTP = gen }
}

// WithLockout sets how many failures lock an account and for how long.
func WithLockout(maxAttempts int, d time.Duration) Option {
	return func(s *Server) {
		s.maxAttempts = maxAttempts
		s.lockoutDuration = d
	}
}

// WithOTPTTL sets how long an issued code stays valid.
func WithOTPTTL(d time.Duration) Option {
	return func(s *Server) { s.otpTTL = d }
}

// WithTokenTTL sets the exp of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithSecret sets the HS256 signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// New returns a fake backend with no accounts.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:        map[string]*accountState{},
		otps:            map[string]pendingOTP{},
		revoked:         map[string]bool{},
		sections:        map[string][]map[string]any{},
		requests:        map[string]int{},
		secret:          []byte("fakeapi-development-secret"),
		now:             time.Now,
		newOTP:          randomOTP,
		maxAttempts:     3,
		lockoutDuration: time.Minute,
		otpTTL:          2 * time.Minute,
		tokenTTL:        time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const otpAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomOTP() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = otpAlphabet[int(b[i])%len(otpAlphabet)]
	}
	return string(b)
}

// AddAccount registers or replaces an account, keyed by lower-case email.
func (s *Server) AddAccount(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(a.Email)] = &accountState{Account: a}
}

// SetSection replaces the items served for a section.
func (s *Server) SetSection(name string, items []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[name] = items
}

// OTP returns the pending code for email, or "".
func (s *Server) OTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[strings.ToLower(email)].code
}

// Revoke makes the probe reject token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// SetProbeStatus forces every probe to answer with status. Zero restores
// normal token checking.
func (s *Server) SetProbeStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeStatus = status
}

// Requests counts handled requests by route name: "login", "verify",
// "probe" and "list".
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

func (s *Server) count(route string) {
	s.mu.Lock()
	s.requests[route]++
	s.mu.Unlock()
}

// Handler serves the REST contract at the default endpoint paths.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/{loginType}/login", s.handleLogin)
	r.Post("/api/{loginType}/verify-otp", s.handleVerify)
	r.Get("/api/auth/me", s.handleProbe)
	r.Get("/api/{section}", s.handleList)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func validLoginType(t string) bool {
	return t == "admin" || t == "editor"
}
