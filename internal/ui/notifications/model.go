package notifications

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/atlassify/internal/keys"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/state"
	"github.com/nhle/atlassify/internal/theme"
)

// OpenMsg asks the parent to open a notification.
type OpenMsg struct {
	Notification model.AtlassifyNotification
}

// DetailMsg asks the parent to show a notification's detail.
type DetailMsg struct {
	Notification model.AtlassifyNotification
}

// MarkMsg asks the parent to change the read state of notifications.
type MarkMsg struct {
	Account       model.Account
	Notifications []model.AtlassifyNotification
	Target        model.ReadState
}

// MarkAllMsg asks the parent to mark every notification of an account read.
type MarkAllMsg struct {
	Account model.Account
}

// SettingsChangedMsg carries settings edited from the list (filters and
// grouping) so the parent can persist them.
type SettingsChangedMsg struct {
	Settings model.Settings
}

// Model is the notification list view component.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	view     state.View
	settings model.Settings
	width    int
	height   int
}

// New creates a new notification list model.
func New(k *keys.KeyMap, settings model.Settings, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		keys:     k,
		settings: settings,
		width:    width,
		height:   height,
	}
}

// SetState replaces the rendered state, keeping the cursor position.
func (m *Model) SetState(v state.View) tea.Cmd {
	m.view = v
	return m.rebuild()
}

// SetSettings replaces the filter and grouping settings.
func (m *Model) SetSettings(s model.Settings) tea.Cmd {
	m.settings = s
	return m.rebuild()
}

// Settings returns the settings the list renders with.
func (m Model) Settings() model.Settings {
	return m.settings
}

func (m *Model) rebuild() tea.Cmd {
	idx := m.list.Index()
	cmd := m.list.SetItems(BuildItems(m.view, m.settings))
	if n := len(m.list.Items()); n > 0 {
		m.list.Select(min(idx, n-1))
	}
	return cmd
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		if n, ok := m.SelectedNotification(); ok {
			return m, emit(OpenMsg{Notification: n})
		}
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		if n, ok := m.SelectedNotification(); ok {
			return m, emit(DetailMsg{Notification: n})
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		return m, m.markSelection(model.ReadStateRead)

	case key.Matches(msg, m.keys.MarkUnread):
		return m, m.markSelection(model.ReadStateUnread)

	case key.Matches(msg, m.keys.MarkAllRead):
		if account, ok := m.SelectedAccount(); ok {
			return m, emit(MarkAllMsg{Account: account})
		}
		return m, nil

	case key.Matches(msg, m.keys.FilterDirect):
		m.settings.Filters.Categories = model.Toggle(m.settings.Filters.Categories, model.CategoryDirect)
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.FilterWatching):
		m.settings.Filters.Categories = model.Toggle(m.settings.Filters.Categories, model.CategoryWatching)
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.FilterMentions):
		m.settings.Filters.Engagements = model.Toggle(m.settings.Filters.Engagements, model.EngagementMention)
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.FilterHumans):
		m.settings.Filters.Actors = model.Toggle(m.settings.Filters.Actors, model.ActorUser)
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.ClearFilters):
		m.settings.Filters = model.FilterSettings{}
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.GroupByProduct):
		ns := &m.settings.Notifications
		ns.GroupNotificationsByProduct = !ns.GroupNotificationsByProduct
		return m, m.settingsChanged()

	case key.Matches(msg, m.keys.Alphabetical):
		ns := &m.settings.Notifications
		ns.GroupNotificationsByProductAlphabetically = !ns.GroupNotificationsByProductAlphabetically
		return m, m.settingsChanged()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) settingsChanged() tea.Cmd {
	s := m.settings
	return tea.Batch(m.rebuild(), emit(SettingsChangedMsg{Settings: s}))
}

// markSelection marks the selected notification, or every notification
// under the selected product header.
func (m Model) markSelection(target model.ReadState) tea.Cmd {
	switch it := m.list.SelectedItem().(type) {
	case NotificationItem:
		n := it.Notification
		return emit(MarkMsg{Account: n.Account, Notifications: []model.AtlassifyNotification{n}, Target: target})
	case ProductHeader:
		var ns []model.AtlassifyNotification
		for _, item := range m.list.Items() {
			ni, ok := item.(NotificationItem)
			if ok && ni.Notification.Account.ID == it.Account.ID && ni.Notification.Product == it.Product {
				ns = append(ns, ni.Notification)
			}
		}
		return emit(MarkMsg{Account: it.Account, Notifications: ns, Target: target})
	}
	return nil
}

// SelectedNotification returns the notification under the cursor.
func (m Model) SelectedNotification() (model.AtlassifyNotification, bool) {
	it, ok := m.list.SelectedItem().(NotificationItem)
	if !ok {
		return model.AtlassifyNotification{}, false
	}
	return it.Notification, true
}

// SelectedAccount returns the account owning the row under the cursor.
func (m Model) SelectedAccount() (model.Account, bool) {
	switch it := m.list.SelectedItem().(type) {
	case AccountHeader:
		return it.Account, true
	case ProductHeader:
		return it.Account, true
	case NotificationItem:
		return it.Notification.Account, true
	}
	return model.Account{}, false
}

// FilterSummary describes the active filters, or "" when none are set.
func (m Model) FilterSummary() string {
	n := m.settings.Filters.Count()
	switch n {
	case 0:
		return ""
	case 1:
		return "1 filter active"
	default:
		return fmt.Sprintf("%d filters active", n)
	}
}

// View renders the notification list view.
func (m Model) View() string {
	if len(m.view.Accounts) == 0 {
		if m.view.Status == state.StatusLoading {
			return m.renderEmptyState("Fetching notifications...")
		}
		return m.renderEmptyState("No accounts yet.\n\nPress L to log in to Atlassian.")
	}

	if m.view.UnreadCount == 0 && m.settings.Filters.IsEmpty() && m.view.Status != state.StatusLoading {
		if countNotifications(m.view) == 0 {
			return m.renderEmptyState("All caught up!")
		}
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when there is nothing to list.
func (m Model) renderEmptyState(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

func countNotifications(v state.View) int {
	n := 0
	for _, acc := range v.Accounts {
		n += len(acc.Notifications)
	}
	return n
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
