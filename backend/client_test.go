package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "k-1"
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginRoutesByLoginType(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.Header.Get("Api-Key") != "k-1" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":            true,
			"message":            "OTP sent",
			"email":              creds.Email,
			"expires_in_minutes": 10,
		})
	}))

	for _, lt := range []string{"admin", "editor"} {
		resp, err := c.Login(context.Background(), lt, Credentials{Email: "a@b.co", Password: "pw"})
		if err != nil {
			t.Fatalf("%s login: %v", lt, err)
		}
		if !resp.Success || resp.Email != "a@b.co" || resp.ExpiresInMinutes != 10 {
			t.Fatalf("%s: unexpected response %+v", lt, resp)
		}
	}
	if paths[0] != "/api/admin/login" || paths[1] != "/api/editor/login" {
		t.Fatalf("unexpected paths %v", paths)
	}

	if _, err := c.Login(context.Background(), "viewer", Credentials{}); !errors.Is(err, ErrUnknownLoginType) {
		t.Fatalf("expected ErrUnknownLoginType, got %v", err)
	}
}

func TestLoginFailureBodyIsDecodedOnErrorStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success":            false,
			"message":            "Invalid credentials",
			"remaining_attempts": 2,
		})
	}))

	resp, err := c.Login(context.Background(), "admin", Credentials{Email: "a@b.co", Password: "bad"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Success || resp.RemainingAttempts == nil || *resp.RemainingAttempts != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestUnstructuredBodyIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	if _, err := c.Login(context.Background(), "admin", Credentials{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = url
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Probe(context.Background(), "tok"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestProbeStatusMapping(t *testing.T) {
	status := http.StatusOK
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		w.WriteHeader(status)
	}))
	ctx := context.Background()

	if err := c.Probe(ctx, "tok"); err != nil {
		t.Fatalf("2xx must be valid: %v", err)
	}
	for _, s := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		status = s
		if err := c.Probe(ctx, "tok"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("status %d: expected ErrUnauthorized, got %v", s, err)
		}
	}
	status = http.StatusInternalServerError
	err := c.Probe(ctx, "tok")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Fatalf("expected APIError 500, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("500 must not be treated as unauthorized")
	}
}

func TestListAcceptsBareAndWrappedArrays(t *testing.T) {
	wrapped := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		items := []map[string]any{{"id": 1, "title": "Hello"}}
		if wrapped {
			writeJSON(w, http.StatusOK, map[string]any{"data": items})
			return
		}
		writeJSON(w, http.StatusOK, items)
	}))

	for _, w := range []bool{false, true} {
		wrapped = w
		items, err := c.List(context.Background(), "tok", "posts")
		if err != nil {
			t.Fatalf("list (wrapped=%v): %v", w, err)
		}
		if len(items) != 1 || items[0].Title() != "Hello" {
			t.Fatalf("unexpected items %v", items)
		}
	}
}

func TestListUnauthorizedWithoutBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if _, err := c.List(context.Background(), "tok", "posts"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestObserverSeesEveryRoundTrip(t *testing.T) {
	var ops []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), WithObserver(func(op string, elapsed time.Duration) {
		ops = append(ops, op)
	}))

	_ = c.Probe(context.Background(), "tok")
	if len(ops) != 1 || ops[0] != "probe" {
		t.Fatalf("unexpected observed ops %v", ops)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	bad := cfg
	bad.BaseURL = "localhost"
	if err := bad.Validate(); err == nil {
		t.Fatal("relative base url must fail")
	}
	bad = cfg
	bad.Timeout = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero timeout must fail")
	}
	bad = cfg
	bad.MTLS = &CertificatePaths{CertPath: "c.pem"}
	if err := bad.Validate(); err == nil {
		t.Fatal("mtls without key must fail")
	}
}
