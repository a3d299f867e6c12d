package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Open   key.Binding
	Detail key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Read state
	MarkRead    key.Binding
	MarkUnread  key.Binding
	MarkAllRead key.Binding

	// Filters
	FilterDirect   key.Binding
	FilterWatching key.Binding
	FilterMentions key.Binding
	FilterHumans   key.Binding
	ClearFilters   key.Binding

	// Grouping
	GroupByProduct key.Binding
	Alphabetical   key.Binding

	// Accounts and settings
	Login    key.Binding
	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter/o", "open in browser"),
		),
		Detail: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "view detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/space", "mark read"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "mark unread"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "mark account read"),
		),
		FilterDirect: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle direct"),
		),
		FilterWatching: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle watching"),
		),
		FilterMentions: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle mentions"),
		),
		FilterHumans: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "toggle people only"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		GroupByProduct: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "group by product"),
		),
		Alphabetical: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "sort products a-z"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "add account"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Open, k.MarkRead,
		k.Refresh, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Detail, k.Back, k.Quit},
		{k.MarkRead, k.MarkUnread, k.MarkAllRead, k.Refresh},
		{k.FilterDirect, k.FilterWatching, k.FilterMentions, k.FilterHumans, k.ClearFilters},
		{k.GroupByProduct, k.Alphabetical, k.Login, k.Settings, k.Command, k.Help},
	}
}
