package tui

import (
	"context"
	"errors"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/backend"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.sections)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.sections) {
			sec := m.sections[m.cursor]
			return m.enter(sec.Route(m.routes))
		}
	case key.Matches(msg, m.keys.Reload):
		if sec, ok := goAdmin.SectionByName(m.current); ok {
			return m.loadSection(sec)
		}
	case key.Matches(msg, m.keys.Logout):
		session := m.tab.Session
		return m, func() tea.Msg {
			// Logout navigates to login itself; a storage error leaves nothing to show.
			_ = session.Logout(context.Background())
			return nil
		}
	}
	return m, nil
}

func (m Model) loadSection(sec goAdmin.Section) (Model, tea.Cmd) {
	m.current = sec.Name
	m.items = nil
	m.loadingSection = true
	client, tab := m.client, m.tab
	return m, func() tea.Msg {
		items, err := client.List(context.Background(), tab, sec.Name)
		return sectionMsg{section: sec.Name, items: items, err: err}
	}
}

func (m Model) handleSection(msg sectionMsg) (tea.Model, tea.Cmd) {
	if msg.section != m.current {
		return m, nil
	}
	m.loadingSection = false
	switch {
	case errors.Is(msg.err, backend.ErrUnauthorized):
		// The session expired; the redirect to login is already on its way.
		return m, nil
	case msg.err != nil:
		m.items = nil
		return m.showToast("Could not load " + msg.section + ".")
	}
	m.items = msg.items
	return m, nil
}
