// Package tui is the terminal dashboard: login tabs, lockout countdown, OTP
// form and the guarded content sections, driven by one goAdmin tab.
package tui

import (
	"context"
	"strings"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/backend"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	toastDuration   = 3 * time.Second
	otpTickInterval = time.Second
	navBuffer       = 16
)

type screen int

const (
	screenWaiting screen = iota
	screenLogin
	screenDashboard
)

type (
	navigateMsg struct {
		route   string
		message string
	}
	sessionInitMsg   struct{ err error }
	sessionChangeMsg struct{}
	countdownMsg     struct{ state goAdmin.LockoutState }
	pageStateMsg     struct {
		state goAdmin.PageState
		err   error
	}
	loginDoneMsg struct {
		res *goAdmin.LoginResult
		err error
	}
	otpDoneMsg struct {
		res *goAdmin.OTPResult
		err error
	}
	sectionMsg struct {
		section string
		items   []backend.Item
		err     error
	}
	otpTickMsg      struct{}
	toastExpiredMsg struct{ id int }
)

// chanNavigator forwards the tab's navigations into the program. A full
// buffer drops the navigation; the guard re-issues it on the next check.
type chanNavigator chan navigateMsg

func (c chanNavigator) Navigate(route, message string) {
	select {
	case c <- navigateMsg{route: route, message: message}:
	default:
	}
}

// Model is the bubbletea model. Create it with New and call Close after
// the program exits.
type Model struct {
	client *goAdmin.Client
	tab    *goAdmin.Tab
	routes goAdmin.RoutesConfig
	keys   KeyMap
	styles styles

	nav         chanNavigator
	sessionCh   <-chan struct{}
	unsubscribe func()
	startRoute  string

	width  int
	height int
	route  string
	screen screen

	loginTypes []goAdmin.LoginType
	page       goAdmin.PageState
	email      textinput.Model
	password   textinput.Model
	otp        textinput.Model
	focus      int
	busy       bool
	status     string
	detail     string
	statusErr  bool

	identity       *goAdmin.Identity
	sections       []goAdmin.Section
	cursor         int
	current        string
	items          []backend.Item
	loadingSection bool

	toast   string
	toastID int
}

// Option customises a [Model].
type Option func(*Model)

// WithStartRoute sets the route the session check runs against. The
// default is the dashboard root.
func WithStartRoute(route string) Option {
	return func(m *Model) { m.startRoute = route }
}

// WithKeyMap replaces [DefaultKeyMap].
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// New opens a tab on client in the storage namespace ns.
func New(client *goAdmin.Client, ns string, opts ...Option) Model {
	nav := make(chanNavigator, navBuffer)
	cfg := client.Config()
	tab := client.OpenTab(ns, nav)
	sessionCh, unsubscribe := tab.Session.Subscribe()

	m := Model{
		client:      client,
		tab:         tab,
		routes:      cfg.Routes,
		keys:        DefaultKeyMap,
		styles:      defaultStyles(),
		nav:         nav,
		sessionCh:   sessionCh,
		unsubscribe: unsubscribe,
		startRoute:  cfg.Routes.Dashboard,
		loginTypes:  cfg.LoginTypes,
		page:        goAdmin.PageState{LoginType: tab.Login.LoginType()},
		email:       newInput("name@example.com", 254),
		password:    newInput("password", 256),
		otp:         newInput("ABC123", cfg.OTP.CodeLength),
	}
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	return in
}

// Close releases the tab's timers and the session subscription.
func (m Model) Close() {
	m.unsubscribe()
	m.tab.Close()
}

// Init checks the session and starts listening for tab events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.initSession(),
		listenNavigation(m.nav),
		listenSession(m.sessionCh),
		listenCountdown(m.tab.Login.Countdown().Updates()),
	)
}

func (m Model) initSession() tea.Cmd {
	session, route := m.tab.Session, m.startRoute
	return func() tea.Msg {
		return sessionInitMsg{err: session.Init(context.Background(), route)}
	}
}

func listenNavigation(ch <-chan navigateMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func listenSession(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionChangeMsg{}
	}
}

func listenCountdown(ch <-chan goAdmin.LockoutState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return countdownMsg{state: st}
	}
}

func (m Model) showToast(text string) (Model, tea.Cmd) {
	m.toastID++
	m.toast = text
	id := m.toastID
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// Update handles keys, tab events and finished requests.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			if m.page.Challenge != nil {
				return m.updateOTPKeys(msg)
			}
			return m.updateLoginKeys(msg)
		case screenDashboard:
			return m.updateDashboardKeys(msg)
		}
		return m, nil

	case sessionInitMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			var cmd tea.Cmd
			m, cmd = m.showToast("Session storage unavailable.")
			cmds = append(cmds, cmd)
		}
		if m.route == "" {
			var cmd tea.Cmd
			m, cmd = m.enter(m.startRoute)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case navigateMsg:
		var cmd tea.Cmd
		m, cmd = m.enter(msg.route)
		cmds := []tea.Cmd{cmd, listenNavigation(m.nav)}
		if msg.message != "" {
			var toastCmd tea.Cmd
			m, toastCmd = m.showToast(msg.message)
			cmds = append(cmds, toastCmd)
		}
		return m, tea.Batch(cmds...)

	case sessionChangeMsg:
		var cmd tea.Cmd
		if m.screen == screenDashboard || m.screen == screenWaiting {
			m, cmd = m.enter(m.route)
		}
		return m, tea.Batch(cmd, listenSession(m.sessionCh))

	case countdownMsg:
		return m.handleCountdown(msg)

	case pageStateMsg:
		if msg.err != nil {
			return m.showToast(msg.err.Error())
		}
		m.page = msg.state
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case otpDoneMsg:
		return m.handleOTPDone(msg)

	case otpTickMsg:
		if m.screen != screenLogin || m.page.Challenge == nil {
			return m, nil
		}
		return m, otpTick()

	case sectionMsg:
		return m.handleSection(msg)

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	}

	if m.screen == screenLogin {
		return m.updateInputs(msg)
	}
	return m, nil
}

// enter switches to route. Dashboard routes pass through the route guard;
// a redirect arrives later as a navigateMsg.
func (m Model) enter(route string) (Model, tea.Cmd) {
	if route == "" {
		route = m.routes.Dashboard
	}
	m.route = route

	if m.routes.IsPublic(route) {
		m.screen = screenLogin
		return m.openLogin()
	}

	section, hasSection := m.sectionForRoute(route)
	guard := m.client.Guard(section.AllowedLoginTypes())
	view := m.tab.Session.View()
	if !guard.Enforce(view, m.nav) {
		m.screen = screenWaiting
		return m, nil
	}

	m.screen = screenDashboard
	m.identity = view.Identity
	m.sections = visibleSections(view.Identity)
	if m.cursor >= len(m.sections) {
		m.cursor = 0
	}
	if hasSection && section.Name != m.current {
		return m.loadSection(section)
	}
	return m, nil
}

func (m Model) sectionForRoute(route string) (goAdmin.Section, bool) {
	name, ok := strings.CutPrefix(route, m.routes.Dashboard+"/")
	if !ok {
		return goAdmin.Section{}, false
	}
	return goAdmin.SectionByName(name)
}

func visibleSections(id *goAdmin.Identity) []goAdmin.Section {
	var out []goAdmin.Section
	for _, s := range goAdmin.Sections {
		if !s.AdminOnly || (id != nil && id.LoginType == goAdmin.LoginTypeAdmin) {
			out = append(out, s)
		}
	}
	return out
}
