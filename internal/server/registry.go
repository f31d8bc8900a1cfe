package server

import (
	"sync"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
)

// navLog is a tab's Navigator. The last navigation is handed to the browser
// with the next response that asks for it.
type navLog struct {
	mu      sync.Mutex
	route   string
	message string
}

func (n *navLog) Navigate(route, message string) {
	n.mu.Lock()
	n.route, n.message = route, message
	n.mu.Unlock()
}

// take returns and clears the pending navigation.
func (n *navLog) take() *navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.route == "" {
		return nil
	}
	out := &navigation{Route: n.route, Message: n.message}
	n.route, n.message = "", ""
	return out
}

type navigation struct {
	Route   string `json:"route"`
	Message string `json:"message,omitempty"`
}

type browserTab struct {
	tab      *goAdmin.Tab
	nav      *navLog
	lastSeen time.Time
}

// registry holds one tab per browser id. Each tab's storage lives under the
// browser id namespace.
type registry struct {
	client *goAdmin.Client

	mu   sync.Mutex
	tabs map[string]*browserTab
}

func newRegistry(client *goAdmin.Client) *registry {
	return &registry{client: client, tabs: make(map[string]*browserTab)}
}

func (r *registry) get(browserID string) *browserTab {
	now := r.client.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	bt, ok := r.tabs[browserID]
	if !ok {
		nav := &navLog{}
		bt = &browserTab{tab: r.client.OpenTab(browserID, nav), nav: nav}
		r.tabs[browserID] = bt
	}
	bt.lastSeen = now
	return bt
}

// prune closes tabs idle for longer than ttl. Persisted state is kept, so a
// returning browser gets a fresh tab over the same storage.
func (r *registry) prune(ttl time.Duration) int {
	cutoff := r.client.Now().Add(-ttl)
	var idle []*browserTab
	r.mu.Lock()
	for id, bt := range r.tabs {
		if bt.lastSeen.Before(cutoff) {
			idle = append(idle, bt)
			delete(r.tabs, id)
		}
	}
	r.mu.Unlock()
	for _, bt := range idle {
		bt.tab.Close()
	}
	return len(idle)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	tabs := r.tabs
	r.tabs = make(map[string]*browserTab)
	r.mu.Unlock()
	for _, bt := range tabs {
		bt.tab.Close()
	}
}
