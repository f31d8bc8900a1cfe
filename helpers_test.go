package goAdmin

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/internal/fakeapi"
	"github.com/MrEthical07/goAdmin/store"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type navRecorder struct {
	mu     sync.Mutex
	routes []string
	msgs   []string
}

func (n *navRecorder) Navigate(route, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
	n.msgs = append(n.msgs, message)
}

func (n *navRecorder) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

func (n *navRecorder) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

type testEnv struct {
	client *Client
	api    *fakeapi.Server
	clock  *clock.Fake
	mem    *store.MemoryStorage
	nav    *navRecorder
	tab    *Tab
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()
	fc := clock.NewFake(testEpoch)
	api := fakeapi.New(
		fakeapi.WithClock(fc.Now),
		fakeapi.WithOTPGenerator(func() string { return "AB12C3" }),
		fakeapi.WithLockout(3, time.Minute),
	)
	api.AddAccount(fakeapi.Account{ID: 1, Email: "a@x.com", Password: "correct", IsAdmin: true})
	api.AddAccount(fakeapi.Account{ID: 2, Email: "e@x.com", Password: "correct", Username: "ed"})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = srv.URL
	for _, m := range mutate {
		m(&cfg)
	}
	mem := store.NewMemoryStorage()
	client, err := New().
		WithConfig(cfg).
		WithStorage(mem).
		WithClock(fc).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	nav := &navRecorder{}
	tab := client.OpenTab("", nav)
	t.Cleanup(tab.Close)
	return &testEnv{client: client, api: api, clock: fc, mem: mem, nav: nav, tab: tab}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
