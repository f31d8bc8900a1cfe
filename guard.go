package goAdmin

import "slices"

// GuardAction is what a guarded view should do.
type GuardAction int

const (
	// GuardWait renders the neutral waiting state.
	GuardWait GuardAction = iota
	// GuardRedirect navigates to Decision.Route and renders the waiting state.
	GuardRedirect
	GuardRender
)

func (a GuardAction) String() string {
	switch a {
	case GuardRedirect:
		return "redirect"
	case GuardRender:
		return "render"
	default:
		return "wait"
	}
}

// Decision is the outcome of one guard check.
type Decision struct {
	Action  GuardAction
	Route   string
	Message string
}

const (
	defaultUnauthenticatedMessage = "Please log in to continue."
	defaultForbiddenMessage       = "You do not have permission to access this page."
)

// RouteGuard gates a view on the session's identity and login type.
// Checks are pure; re-run them whenever the session view changes.
type RouteGuard struct {
	allowed  []LoginType
	login    string
	fallback string

	unauthenticatedMessage string
	forbiddenMessage       string

	metrics *Metrics
}

// GuardOption customises a [RouteGuard].
type GuardOption func(*RouteGuard)

// WithFallback sets where a signed-in operator with a disallowed login type
// is sent. The default is the dashboard root.
func WithFallback(route string) GuardOption {
	return func(g *RouteGuard) { g.fallback = route }
}

// WithMessages replaces the notices shown on the login and forbidden redirects.
func WithMessages(unauthenticated, forbidden string) GuardOption {
	return func(g *RouteGuard) {
		g.unauthenticatedMessage = unauthenticated
		g.forbiddenMessage = forbidden
	}
}

// NewRouteGuard allows the given login types. With none, every signed-in
// operator is allowed.
func NewRouteGuard(routes RoutesConfig, allowed []LoginType, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		allowed:                slices.Clone(allowed),
		login:                  routes.Login,
		fallback:               routes.Dashboard,
		unauthenticatedMessage: defaultUnauthenticatedMessage,
		forbiddenMessage:       defaultForbiddenMessage,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allows reports whether t passes the allow-list.
func (g *RouteGuard) Allows(t LoginType) bool {
	return len(g.allowed) == 0 || slices.Contains(g.allowed, t)
}

// Check decides what the guarded view does for view. It has no side effects.
func (g *RouteGuard) Check(view SessionView) Decision {
	switch {
	case view.Loading:
		return Decision{Action: GuardWait}
	case view.Identity == nil:
		return Decision{Action: GuardRedirect, Route: g.login, Message: g.unauthenticatedMessage}
	case !g.Allows(view.Identity.LoginType):
		return Decision{Action: GuardRedirect, Route: g.fallback, Message: g.forbiddenMessage}
	default:
		return Decision{Action: GuardRender}
	}
}

// Enforce checks view, performs any redirect through nav, and reports
// whether the guarded view may render.
func (g *RouteGuard) Enforce(view SessionView, nav Navigator) bool {
	d := g.Check(view)
	if d.Action == GuardRedirect {
		g.metrics.Inc(MetricGuardRedirect)
		if nav != nil {
			nav.Navigate(d.Route, d.Message)
		}
	}
	return d.Action == GuardRender
}
