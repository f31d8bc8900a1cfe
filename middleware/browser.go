package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const DefaultBrowserCookie = "goadmin_browser"

type browserIDContextKey struct{}

// BrowserIDFromContext returns the id stored by [BrowserID].
func BrowserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(browserIDContextKey{}).(string)
	return id, ok && id != ""
}

// BrowserCookie configures the id cookie. Zero values select a session
// cookie named DefaultBrowserCookie on path "/".
type BrowserCookie struct {
	Name   string
	Path   string
	MaxAge time.Duration
	Secure bool
}

// BrowserID reuses a well-formed id cookie or issues a fresh uuid.
func BrowserID(cfg BrowserCookie) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = DefaultBrowserCookie
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.Name); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				cookie := &http.Cookie{
					Name:     cfg.Name,
					Value:    id,
					Path:     cfg.Path,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				}
				if cfg.MaxAge > 0 {
					cookie.MaxAge = int(cfg.MaxAge / time.Second)
				}
				http.SetCookie(w, cookie)
			}
			ctx := context.WithValue(r.Context(), browserIDContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
