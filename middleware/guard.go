package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	goAdmin "github.com/MrEthical07/goAdmin"
)

// ViewFunc resolves the session view for a request. ok=false means no
// session could be resolved and is treated as signed out.
type ViewFunc func(r *http.Request) (view goAdmin.SessionView, ok bool)

type identityContextKey struct{}

// IdentityFromContext returns the identity [Guard] let through.
func IdentityFromContext(ctx context.Context) (*goAdmin.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goAdmin.Identity)
	return id, ok
}

// Redirect is the JSON body returned instead of a guarded response.
type Redirect struct {
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
	Status   string `json:"status"`
}

// Guard answers 503 while the session is loading, 401 with a redirect to
// the login route when signed out, 403 with a redirect to the fallback when
// the login type is not allowed, and otherwise calls next with the identity
// in the context.
func Guard(guard *goAdmin.RouteGuard, login string, resolve ViewFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var view goAdmin.SessionView
			if resolve != nil {
				if v, ok := resolve(r); ok {
					view = v
				}
			}

			redirected := false
			nav := goAdmin.NavigatorFunc(func(route, message string) {
				redirected = true
				status := http.StatusForbidden
				if route == login {
					status = http.StatusUnauthorized
				}
				writeJSON(w, status, Redirect{Redirect: route, Message: message, Status: "redirect"})
			})
			if guard == nil || !guard.Enforce(view, nav) {
				if !redirected {
					w.Header().Set("Retry-After", "1")
					writeJSON(w, http.StatusServiceUnavailable, Redirect{Status: "loading"})
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, view.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin sends editors to the dashboard root.
func RequireAdmin(routes goAdmin.RoutesConfig, resolve ViewFunc) func(http.Handler) http.Handler {
	guard := goAdmin.NewRouteGuard(routes, []goAdmin.LoginType{goAdmin.LoginTypeAdmin})
	return Guard(guard, routes.Login, resolve)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
