package tui

import (
	"fmt"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// View renders the current screen.
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.loginView()
	case screenDashboard:
		body = m.dashboardView()
	default:
		body = m.styles.muted.Render("Checking session...")
	}

	parts := []string{m.styles.title.Render("goAdmin"), "", body}
	if m.toast != "" {
		parts = append(parts, "", m.styles.toast.Render(m.toast))
	}
	parts = append(parts, "", m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, len(m.loginTypes))
	for _, t := range m.loginTypes {
		label := strings.ToUpper(string(t[:1])) + string(t[1:])
		if t == m.page.LoginType {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	if ch := m.page.Challenge; ch != nil {
		fmt.Fprintf(&b, "Enter the code sent to %s\n\n", ch.Email)
		b.WriteString(m.styles.label.Render("Code"))
		b.WriteString(m.otp.View())
		b.WriteByte('\n')
		if exp := m.otpExpiry(); exp != "" {
			b.WriteString(m.styles.muted.Render("Code expires in " + exp))
			b.WriteByte('\n')
		}
	} else {
		b.WriteString(m.styles.label.Render("Email"))
		b.WriteString(m.email.View())
		b.WriteByte('\n')
		b.WriteString(m.styles.label.Render("Password"))
		b.WriteString(m.password.View())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	switch {
	case m.busy:
		b.WriteString(m.styles.muted.Render("Please wait..."))
	case m.page.Lockout.Locked:
		b.WriteString(m.styles.errorText.Render(lockoutMessage(m.page.Lockout)))
	case m.status != "":
		style := m.styles.okText
		if m.statusErr {
			style = m.styles.errorText
		}
		b.WriteString(style.Render(m.status))
	}
	if m.detail != "" && !m.page.Lockout.Locked {
		b.WriteByte('\n')
		b.WriteString(m.styles.muted.Render(m.detail))
	} else if n := m.page.RemainingAttempts; n != nil && m.status == "" && !m.page.Lockout.Locked {
		b.WriteString(m.styles.muted.Render(goAdmin.AttemptsMessage(*n)))
	}
	return b.String()
}

func (m Model) dashboardView() string {
	var who string
	if id := m.identity; id != nil {
		name := id.Username
		if name == "" {
			name = id.Email
		}
		who = fmt.Sprintf("Signed in as %s (%s)", name, id.LoginType)
	}

	var menu strings.Builder
	for i, sec := range m.sections {
		if i == m.cursor {
			menu.WriteString(m.styles.cursor.Render("> " + sec.Title))
		} else {
			menu.WriteString("  " + sec.Title)
		}
		menu.WriteByte('\n')
	}

	var content strings.Builder
	switch {
	case m.current == "":
		content.WriteString(m.styles.muted.Render("Select a section."))
	case m.loadingSection:
		content.WriteString(m.styles.muted.Render("Loading..."))
	case len(m.items) == 0:
		content.WriteString(m.styles.muted.Render("Nothing here yet."))
	default:
		for _, item := range m.items {
			content.WriteString("• " + item.Title() + "\n")
		}
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.panel.Render(strings.TrimRight(menu.String(), "\n")),
		m.styles.panel.Render(strings.TrimRight(content.String(), "\n")),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.styles.muted.Render(who), panes)
}

func (m Model) helpView() string {
	var bindings []key.Binding
	switch {
	case m.screen == screenDashboard:
		bindings = []key.Binding{m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Reload, m.keys.Logout, m.keys.Close}
	case m.screen == screenLogin && m.page.Challenge != nil:
		bindings = []key.Binding{m.keys.Submit, m.keys.Back, m.keys.Quit}
	case m.screen == screenLogin:
		bindings = []key.Binding{m.keys.NextField, m.keys.Submit}
		if len(m.loginTypes) > 1 {
			bindings = append(bindings, m.keys.SwitchType)
		}
		bindings = append(bindings, m.keys.Quit)
	default:
		bindings = []key.Binding{m.keys.Quit}
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.muted.Render(strings.Join(parts, " • "))
}
