package settings

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/theme"
)

// SavedMsg is dispatched with the edited settings.
type SavedMsg struct {
	Settings model.Settings
}

// CancelMsg is dispatched when the user leaves without saving.
type CancelMsg struct{}

// Model is the settings form. Values are bound to a heap copy of the
// settings so huh's pointers survive Bubble Tea model copies.
type Model struct {
	form     *huh.Form
	settings *model.Settings
	width    int
	height   int
}

// New creates a new settings form model.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// Start opens the form on a copy of current.
func (m *Model) Start(current model.Settings) tea.Cmd {
	s := current
	m.settings = &s
	m.form = m.build()
	return m.form.Init()
}

func (m *Model) build() *huh.Form {
	s := m.settings
	volumes := make([]huh.Option[int], 0, 11)
	for v := 0; v <= 100; v += 10 {
		volumes = append(volumes, huh.NewOption(strconv.Itoa(v)+"%", v))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Mark as read on open").
				Value(&s.Notifications.MarkAsReadOnOpen),
			huh.NewConfirm().
				Title("Fetch only unread notifications").
				Value(&s.Notifications.FetchOnlyUnreadNotifications),
			huh.NewConfirm().
				Title("Delay notification state").
				Description("Keep read notifications visible until the next refresh").
				Value(&s.Notifications.DelayNotificationState),
			huh.NewConfirm().
				Title("Group notifications by title").
				Value(&s.Notifications.GroupNotificationsByTitle),
			huh.NewConfirm().
				Title("Group notifications by product").
				Value(&s.Notifications.GroupNotificationsByProduct),
			huh.NewConfirm().
				Title("Sort products alphabetically").
				Value(&s.Notifications.GroupNotificationsByProductAlphabetically),
		).Title("Notifications"),
		huh.NewGroup(
			huh.NewSelect[model.OpenPreference]().
				Title("Open links").
				Options(
					huh.NewOption("In foreground", model.OpenForeground),
					huh.NewOption("In background", model.OpenBackground),
				).
				Value(&s.System.OpenLinks),
			huh.NewConfirm().
				Title("Show system notifications").
				Value(&s.System.ShowNotifications),
			huh.NewConfirm().
				Title("Play sound for new notifications").
				Value(&s.System.PlaySoundNewNotifications),
			huh.NewSelect[int]().
				Title("Notification volume").
				Options(volumes...).
				Value(&s.System.NotificationVolume),
		).Title("System"),
		huh.NewGroup(
			huh.NewSelect[model.Theme]().
				Title("Theme").
				Options(
					huh.NewOption("System", model.ThemeSystem),
					huh.NewOption("Light", model.ThemeLight),
					huh.NewOption("Dark", model.ThemeDark),
				).
				Value(&s.Appearance.Theme),
			huh.NewConfirm().
				Title("Show unread count in tray").
				Value(&s.Tray.ShowNotificationsCountInTray),
			huh.NewConfirm().
				Title("Use active icon when unread").
				Value(&s.Tray.UseUnreadActiveIcon),
		).Title("Appearance & tray"),
	).WithWidth(min(max(m.width-4, 40), 100)).WithHeight(max(m.height-4, 12))
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		saved := *m.settings
		m.form = nil
		return m, func() tea.Msg { return SavedMsg{Settings: saved} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Settings")

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
