package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrEthical07/goAdmin/backend"
	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/store"
)

// SessionContext is the single source of truth for who is signed in on one
// tab. Login and Logout are its only mutators.
type SessionContext struct {
	store   *store.Store
	backend *backend.Client
	nav     Navigator
	routes  RoutesConfig
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
	audit   auditEmitter

	mu       sync.RWMutex
	identity *Identity
	loading  bool
	started  bool
	subs     map[int]chan struct{}
	nextSub  int
}

// SessionView is a consistent snapshot for guards and renderers.
type SessionView struct {
	Identity *Identity
	Loading  bool
}

// Init runs the startup check for the tab. Only the first call has any
// effect.
//
// On a public route nothing is read. Otherwise the persisted identity is
// loaded and its token probed: a 401/403 (or an expired JWT) clears the
// identity and navigates to login, while any other probe error keeps the
// identity.
func (s *SessionContext) Init(ctx context.Context, route string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if s.routes.IsPublic(route) {
		s.finish(nil)
		return nil
	}

	rec, ok, err := s.store.LoadIdentity(ctx)
	if err != nil {
		s.finish(nil)
		s.nav.Navigate(s.routes.Login, "")
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		s.finish(nil)
		s.nav.Navigate(s.routes.Login, "")
		return nil
	}

	id, err := identityFromRecord(rec)
	if err != nil {
		s.logger.Warn("discarding persisted identity", slog.String("error", err.Error()))
		s.invalidate(ctx, nil, "invalid_record")
		return nil
	}

	if tokenExpired(id.Token, s.clock.Now()) {
		s.invalidate(ctx, &id, "token_expired")
		return nil
	}

	if err := s.backend.Probe(ctx, id.Token); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.invalidate(ctx, &id, "probe_rejected")
			return nil
		}
		s.metrics.Inc(MetricSessionProbeFailOpen)
		s.logger.Warn("token probe failed, keeping session",
			slog.String("login_type", string(id.LoginType)),
			slog.String("error", err.Error()),
		)
		s.finish(&id)
		return nil
	}

	s.metrics.Inc(MetricSessionValidated)
	s.finish(&id)
	return nil
}

func identityFromRecord(rec store.IdentityRecord) (Identity, error) {
	t, err := ParseLoginType(rec.UserType)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Token:     rec.AccessToken,
		LoginType: t,
		Email:     rec.Email,
		UserID:    rec.UserID,
		Username:  rec.Username,
		IsAdmin:   rec.IsAdmin,
	}, nil
}

func recordFromIdentity(id Identity) store.IdentityRecord {
	return store.IdentityRecord{
		AccessToken: id.Token,
		UserType:    string(id.LoginType),
		Email:       id.Email,
		UserID:      id.UserID,
		Username:    id.Username,
		IsAdmin:     id.IsAdmin,
	}
}

// invalidate drops a rejected identity without telling the user why.
func (s *SessionContext) invalidate(ctx context.Context, prev *Identity, reason string) {
	if err := s.store.ClearIdentity(ctx); err != nil {
		s.logger.Error("clear persisted identity failed", slog.String("error", err.Error()))
	}
	s.metrics.Inc(MetricSessionInvalidated)
	rec := auditRecord{
		eventType: auditEventForcedLogout,
		metadata:  func() map[string]string { return map[string]string{"reason": reason} },
	}
	if prev != nil {
		rec.loginType, rec.email, rec.userID = prev.LoginType, prev.Email, prev.UserID
	}
	s.audit.emit(ctx, rec)
	s.finish(nil)
	s.nav.Navigate(s.routes.Login, "")
}

func (s *SessionContext) finish(id *Identity) {
	s.mu.Lock()
	s.identity = id
	s.loading = false
	s.notifyLocked()
	s.mu.Unlock()
}

// Login publishes id. The caller has already persisted it.
func (s *SessionContext) Login(id Identity) {
	s.mu.Lock()
	s.identity = &id
	s.loading = false
	s.started = true
	s.notifyLocked()
	s.mu.Unlock()
}

// Logout clears the persisted and in-memory identity and navigates to login.
// The in-memory identity is cleared even when storage fails.
func (s *SessionContext) Logout(ctx context.Context) error {
	prev := s.Identity()
	storeErr := s.store.ClearIdentity(ctx)

	s.finish(nil)
	s.metrics.Inc(MetricLogout)
	rec := auditRecord{eventType: auditEventLogout, success: storeErr == nil, err: storeErr}
	if prev != nil {
		rec.loginType, rec.email, rec.userID = prev.LoginType, prev.Email, prev.UserID
	}
	s.audit.emit(ctx, rec)
	s.nav.Navigate(s.routes.Login, "")

	if storeErr != nil {
		return fmt.Errorf("%w: %v", ErrStorage, storeErr)
	}
	return nil
}

// Expire handles a backend rejection seen after Init, such as a 401 on a
// section listing. It behaves like a silent forced logout.
func (s *SessionContext) Expire(ctx context.Context) {
	s.invalidate(ctx, s.Identity(), "request_rejected")
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *SessionContext) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Loading is true until Init (or Login) completes.
func (s *SessionContext) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// View returns the identity and loading flag under one lock.
func (s *SessionContext) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := SessionView{Loading: s.loading}
	if s.identity != nil {
		cp := *s.identity
		v.Identity = &cp
	}
	return v
}

// Subscribe returns a channel that receives a value after every identity or
// loading change. Notifications coalesce; read View for the current state.
// Call cancel to release the subscription.
func (s *SessionContext) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = map[int]chan struct{}{}
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *SessionContext) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
