package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/atlassify/internal/auth"
	"github.com/nhle/atlassify/internal/keys"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/state"
	"github.com/nhle/atlassify/internal/store"
	"github.com/nhle/atlassify/internal/theme"
	appsync "github.com/nhle/atlassify/internal/sync"
	"github.com/nhle/atlassify/internal/ui"
	"github.com/nhle/atlassify/internal/ui/command"
	"github.com/nhle/atlassify/internal/ui/detail"
	helpview "github.com/nhle/atlassify/internal/ui/help"
	"github.com/nhle/atlassify/internal/ui/login"
	"github.com/nhle/atlassify/internal/ui/notifications"
	settingsview "github.com/nhle/atlassify/internal/ui/settings"
	"github.com/nhle/atlassify/internal/ui/tray"
)

// alertTTL is how long a raised notification stays in the status bar.
const alertTTL = 15 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewLogin
	ViewSettings
)

// Deps are the services the root model drives.
type Deps struct {
	Store     store.Store
	Container *state.Container
	Poller    *appsync.Poller
	Auth      *auth.Service
	Tray      *tray.Bridge
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the notification state.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	store     store.Store
	container *state.Container
	poller    *appsync.Poller
	auth      *auth.Service
	tray      *tray.Bridge

	list         notifications.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	loginView    login.Model
	settingsView settingsview.Model

	ready       bool
	globalError atlassian.ErrorType
	authErrors  []model.Account
	message     string
	now         func() time.Time
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	settings := d.Container.Settings()
	theme.Apply(settings.Appearance.Theme)

	return Model{
		currentView:  ViewList,
		keys:         k,
		store:        d.Store,
		container:    d.Container,
		poller:       d.Poller,
		auth:         d.Auth,
		tray:         d.Tray,
		list:         notifications.New(k, settings, 80, 24),
		detail:       detail.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		loginView:    login.New(80, 24),
		settingsView: settingsview.New(80, 24),
		now:          time.Now,
	}
}

// Init loads the accounts and starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadAccounts(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height).WithBanner(m.globalError != "")
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case accountsLoadedMsg:
		if msg.err != nil {
			m.message = "Loading accounts failed: " + msg.err.Error()
			return m, nil
		}
		if len(msg.accounts) == 0 && m.currentView == ViewList {
			return m, m.openLogin("")
		}
		return m, nil

	case appsync.CycleResultMsg:
		m.setGlobalError(msg.GlobalError)
		m.authErrors = msg.AuthErrors
		return m, tea.Batch(
			m.list.SetState(msg.State),
			m.poller.WaitForNextResult(),
		)

	case notifications.OpenMsg:
		return m, m.open(msg.Notification)

	case detail.OpenMsg:
		return m, m.open(msg.Notification)

	case notifications.DetailMsg:
		m.detail.SetNotification(msg.Notification)
		m.switchTo(ViewDetail)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case notifications.MarkMsg:
		return m, m.mark(msg.Account, msg.Notifications, msg.Target)

	case notifications.MarkAllMsg:
		return m, m.markAll(msg.Account)

	case mutationDoneMsg:
		m.message = describeMutation(msg.result)
		if msg.openErr != nil {
			m.message = "Could not open link: " + msg.openErr.Error()
		}
		m.refreshTray(msg.result.State.UnreadCount)
		return m, m.list.SetState(msg.result.State)

	case notifications.SettingsChangedMsg:
		return m, m.applySettings(msg.Settings)

	case settingsview.SavedMsg:
		m.currentView = ViewList
		refetch := msg.Settings.Notifications.FetchOnlyUnreadNotifications !=
			m.container.Settings().Notifications.FetchOnlyUnreadNotifications
		cmd := m.applySettings(msg.Settings)
		if refetch {
			m.poller.Refresh()
		}
		return m, cmd

	case settingsview.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.message = "Saving settings failed: " + msg.err.Error()
		}
		return m, nil

	case login.SubmitMsg:
		m.message = "Logging in as " + msg.Username + "..."
		return m, m.login(msg.Username, msg.Token)

	case login.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.message = ""
			return m, m.loginView.Start(msg.err.Error())
		}
		m.currentView = ViewList
		m.message = "Logged in as " + msg.account.Label()
		var cmd tea.Cmd
		if m.container.UpdateAccount(msg.account) {
			cmd = m.list.SetState(m.container.Snapshot())
		}
		m.poller.Refresh()
		return m, cmd

	case logoutResultMsg:
		if msg.err != nil {
			m.message = "Logout failed: " + msg.err.Error()
			return m, nil
		}
		m.container.RemoveAccount(msg.account.ID)
		view := m.container.Snapshot()
		m.refreshTray(view.UnreadCount)
		m.message = "Logged out " + msg.account.Label()
		return m, m.list.SetState(view)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that apply regardless of the child view.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return tea.Quit, true
	}

	switch m.currentView {
	case ViewLogin, ViewSettings:
		if msg.String() == "esc" {
			m.currentView = ViewList
			return nil, true
		}
		return nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case ViewCommand:
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.switchTo(ViewHelp)
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.switchTo(ViewCommand)
		return m.commandView.Focus(), true
	}

	if m.currentView != ViewList {
		return nil, false
	}

	m.message = ""
	if m.tray != nil {
		m.tray.DismissAlert()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		m.poller.Refresh()
		m.message = "Refreshing..."
		return nil, true

	case key.Matches(msg, m.keys.Login):
		return m.openLogin(""), true

	case key.Matches(msg, m.keys.Settings):
		return m.openSettings(), true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

func (m *Model) switchTo(v ViewState) {
	m.previousView = m.currentView
	m.currentView = v
}

func (m *Model) openLogin(errText string) tea.Cmd {
	m.switchTo(ViewLogin)
	return m.loginView.Start(errText)
}

func (m *Model) openSettings() tea.Cmd {
	m.switchTo(ViewSettings)
	return m.settingsView.Start(m.container.Settings())
}

func (m *Model) setGlobalError(t atlassian.ErrorType) {
	m.globalError = t
	if m.ready {
		m.layout = m.layout.WithBanner(t != "")
		m.resize()
	}
}

func (m *Model) resize() {
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.list.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.loginView.SetSize(w, h)
	m.settingsView.SetSize(w, h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var trayStatus tray.Status
	if m.tray != nil {
		trayStatus = m.tray.Status()
	}
	header := m.layout.RenderHeader("Atlassify", m.trayIndicator(trayStatus), trayStatus.Active())

	banner := ""
	if m.globalError != "" {
		banner = m.layout.RenderBanner(bannerText(m.globalError))
	}

	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusText(trayStatus))

	return m.layout.RenderWithFrame(header, banner, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewLogin:
		return m.loginView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

func (m Model) trayIndicator(s tray.Status) string {
	status := m.poller.Status()
	sync := "idle"
	switch status.State {
	case appsync.SyncRunning:
		sync = "syncing"
	case appsync.SyncError:
		sync = "error"
	}
	if s.Title == "" {
		return sync
	}
	return fmt.Sprintf("● %s  %s", s.Title, sync)
}

func bannerText(t atlassian.ErrorType) string {
	d := t.Details()
	return fmt.Sprintf("%s %s: %s", d.Emoji, d.Title, strings.Join(d.Descriptions, " "))
}

// statusText is the status bar line: a transient message or alert when
// present, otherwise key hints for the active view.
func (m Model) statusText(s tray.Status) string {
	if m.currentView == ViewList {
		if m.message != "" {
			return m.message
		}
		if s.Alert != nil && m.now().Sub(s.Alert.At) < alertTTL {
			return "🔔 " + s.Alert.Title + ": " + s.Alert.Body
		}
		if n := len(m.authErrors); n > 0 && m.globalError == "" {
			return fmt.Sprintf("%d account(s) rejected their token | L log in again", n)
		}
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | enter open | j/k scroll"
	case ViewLogin, ViewSettings:
		return "enter next | esc cancel"
	default:
		if summary := m.list.FilterSummary(); summary != "" {
			return summary + " | 0 clear"
		}
		return "q quit | ? help | enter open | x read | u unread | X read all | r refresh"
	}
}
