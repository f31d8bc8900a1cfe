package goAdmin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAdmin/backend"
	"github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/store"
	"github.com/redis/go-redis/v9"
)

// Client holds the dependencies shared by every tab. Build one with
// [Builder] and Close it on shutdown.
type Client struct {
	config  Config
	backend *backend.Client
	storage store.Storage
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
	audit   *audit.Dispatcher

	ownedRedis redis.UniversalClient
	closers    []func() error
}

// Tab is one dashboard instance over one storage namespace.
type Tab struct {
	Namespace string
	Session   *SessionContext
	Login     *LoginPage
	Lockout   *LockoutPolicy
}

// Close stops the tab's countdown and pending redirect.
func (t *Tab) Close() {
	t.Login.close()
}

// OpenTab wires a session, login page and lockout policy over the storage
// namespace ns. An empty ns uses the storage root. nav receives every
// navigation the tab performs; nil discards them.
func (c *Client) OpenTab(ns string, nav Navigator) *Tab {
	if nav == nil {
		nav = discardNavigator{}
	}
	st := store.New(store.Namespaced(c.storage, ns))
	logger := c.logger
	if ns != "" {
		logger = logger.With(slog.String("namespace", ns))
	}
	emitter := auditEmitter{dispatcher: c.audit, namespace: ns, now: c.clock.Now}
	policy := newLockoutPolicy(st, c.clock, logger, c.config.Lockout.TickInterval)

	session := &SessionContext{
		store:   st,
		backend: c.backend,
		nav:     nav,
		routes:  c.config.Routes,
		clock:   c.clock,
		logger:  logger,
		metrics: c.metrics,
		audit:   emitter,
		loading: true,
	}
	page := &LoginPage{
		cfg:       &c.config,
		backend:   c.backend,
		store:     st,
		policy:    policy,
		session:   session,
		nav:       nav,
		clock:     c.clock,
		logger:    logger,
		metrics:   c.metrics,
		audit:     emitter,
		countdown: policy.NewCountdown(),
		loginType: c.config.LoginTypes[0],
	}
	return &Tab{Namespace: ns, Session: session, Login: page, Lockout: policy}
}

// Guard returns a route guard for the given login types, reporting
// redirects to the client's metrics.
func (c *Client) Guard(allowed []LoginType, opts ...GuardOption) *RouteGuard {
	g := NewRouteGuard(c.config.Routes, allowed, opts...)
	g.metrics = c.metrics
	return g
}

// Backend exposes the backend client for content calls.
func (c *Client) Backend() *backend.Client {
	return c.backend
}

// Config returns a copy of the effective configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// Now reads the client's clock.
func (c *Client) Now() time.Time {
	return c.clock.Now()
}

// List fetches a dashboard section for the tab's identity. A 401/403 from
// the backend expires the tab's session.
func (c *Client) List(ctx context.Context, tab *Tab, section string) ([]backend.Item, error) {
	id := tab.Session.Identity()
	if id == nil {
		return nil, backend.ErrUnauthorized
	}
	items, err := c.backend.List(ctx, id.Token, section)
	if err != nil {
		if isUnauthorized(err) {
			tab.Session.Expire(ctx)
		}
		return nil, err
	}
	return items, nil
}

// Metrics returns the client's counters.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot copies the counters for the metrics exporters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped counts audit events lost to a full buffer.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close drains the audit dispatcher and releases storage the client opened.
func (c *Client) Close() error {
	c.audit.Close()
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func isUnauthorized(err error) bool {
	return errors.Is(err, backend.ErrUnauthorized)
}
