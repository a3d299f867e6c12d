package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/atlassify/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
	BannerHeight    int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, the error banner and the status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight - l.BannerHeight
}

// WithBanner reserves a line for the error banner when shown is true.
func (l Layout) WithBanner(shown bool) Layout {
	l.BannerHeight = 0
	if shown {
		l.BannerHeight = 1
	}
	return l
}

// RenderHeader renders the top header bar with a title and the tray
// indicator on the right, highlighted when the tray is active.
func (l Layout) RenderHeader(title string, tray string, active bool) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.TrayStyle(active).
		Align(lipgloss.Right).
		Render(tray)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderBanner renders a full-width error line.
func (l Layout) RenderBanner(text string) string {
	return theme.ErrorStyle.Width(l.Width).Padding(0, 1).Render(text)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, optional banner, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	banner string,
	content string,
	statusBar string,
) string {
	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
