package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/atlassify/internal/keys"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// OpenMsg asks the parent to open the displayed notification.
type OpenMsg struct {
	Notification model.AtlassifyNotification
}

// Model is the notification detail view component.
type Model struct {
	notification *model.AtlassifyNotification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Open):
			if m.notification != nil {
				n := *m.notification
				return m, func() tea.Msg { return OpenMsg{Notification: n} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.notification == nil {
		return ""
	}

	n := m.notification
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := n.Entity.Title
	if title == "" {
		title = n.Product.Details().Name
	}
	sections = append(sections, titleStyle.Render(title))

	badges := []string{
		theme.ProductStyle(n.Product).Render(n.Product.Details().Name),
		string(n.ReadState),
		string(n.Category),
	}
	if n.Engagement != model.EngagementNone {
		badges = append(badges, string(n.Engagement))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-9s", label+":")),
			valStyle.Render(value),
		))
	}

	row("Account", n.Account.Label())
	row("Actor", fmt.Sprintf("%s (%s)", actorName(n.Actor), n.Actor.Type))
	if !n.UpdatedAt.IsZero() {
		row("Updated", n.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if n.Path != nil {
		row("Path", n.Path.Title)
	}
	row("URL", n.URL)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "", n.Message)

	if n.NotificationGroup.IsGroup() {
		sections = append(sections, "", separator, "")
		sections = append(sections, titleStyle.Render(
			fmt.Sprintf("Grouped updates (%d)", n.NotificationGroup.Size),
		))
		for _, a := range n.NotificationGroup.AdditionalActors {
			sections = append(sections, "  "+actorName(a))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func actorName(a model.Actor) string {
	if a.DisplayName == "" {
		return "Unknown"
	}
	return a.DisplayName
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n model.AtlassifyNotification) {
	m.notification = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
