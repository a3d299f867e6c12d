package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notify"
	"github.com/nhle/atlassify/internal/state"
	"github.com/nhle/atlassify/internal/store"
	"github.com/nhle/atlassify/internal/theme"
	"github.com/nhle/atlassify/internal/ui/command"
)

// requestTimeout bounds a single user-triggered API call.
const requestTimeout = 30 * time.Second

type accountsLoadedMsg struct {
	accounts []model.Account
	err      error
}

type mutationDoneMsg struct {
	result  state.MutationResult
	openErr error
}

type settingsSavedMsg struct {
	err error
}

type loginResultMsg struct {
	account model.Account
	err     error
}

type logoutResultMsg struct {
	account model.Account
	err     error
}

// loadAccounts returns a command that reads the stored accounts.
func (m Model) loadAccounts() tea.Cmd {
	svc := m.auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		accounts, err := svc.Accounts(ctx)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m Model) mark(
	account model.Account,
	ns []model.AtlassifyNotification,
	target model.ReadState,
) tea.Cmd {
	if len(ns) == 0 {
		return nil
	}
	c := m.container
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if target == model.ReadStateRead {
			return mutationDoneMsg{result: c.MarkAsRead(ctx, account, ns)}
		}
		return mutationDoneMsg{result: c.MarkAsUnread(ctx, account, ns)}
	}
}

func (m Model) markAll(account model.Account) tea.Cmd {
	c := m.container
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return mutationDoneMsg{result: c.MarkAllAsRead(ctx, account)}
	}
}

func (m Model) open(n model.AtlassifyNotification) tea.Cmd {
	c := m.container
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := c.Open(ctx, n)
		return mutationDoneMsg{result: result, openErr: err}
	}
}

func (m Model) login(username, token string) tea.Cmd {
	svc := m.auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		account, err := svc.Login(ctx, username, token)
		return loginResultMsg{account: account, err: err}
	}
}

func (m Model) logout(accountID string) tea.Cmd {
	svc := m.auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		account, err := svc.Logout(ctx, accountID)
		return logoutResultMsg{account: account, err: err}
	}
}

// applySettings puts s into effect immediately and persists it in the
// background.
func (m *Model) applySettings(s model.Settings) tea.Cmd {
	s.Filters = s.Filters.Sanitize()
	m.container.SetSettings(s)
	theme.Apply(s.Appearance.Theme)
	m.refreshTray(m.container.UnreadCount())

	persisted := m.store
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, err := store.Update(ctx, persisted, func(st *store.State) error {
			st.Settings = s
			return nil
		})
		if err != nil {
			logging.Logger().WithError(err).Error("saving settings")
		}
		return settingsSavedMsg{err: err}
	}

	return tea.Batch(m.list.SetSettings(s), save)
}

func (m *Model) refreshTray(unreadCount int) {
	if m.tray == nil {
		return
	}
	notify.UpdateTray(m.tray, unreadCount, m.container.Settings())
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	s := m.container.Settings()

	switch c.Name {
	case "refresh", "sync":
		m.poller.Refresh()
		m.message = "Refreshing..."
		return nil

	case "read all":
		account, ok := m.list.SelectedAccount()
		if !ok {
			m.message = "Select an account first"
			return nil
		}
		return m.markAll(account)

	case "filter clear", "clear":
		s.Filters = model.FilterSettings{}
		return m.applySettings(s)

	case "filter direct":
		s.Filters.Categories = model.Toggle(s.Filters.Categories, model.CategoryDirect)
		return m.applySettings(s)

	case "filter watching":
		s.Filters.Categories = model.Toggle(s.Filters.Categories, model.CategoryWatching)
		return m.applySettings(s)

	case "filter mention":
		s.Filters.Engagements = model.Toggle(s.Filters.Engagements, model.EngagementMention)
		return m.applySettings(s)

	case "filter human":
		s.Filters.Actors = model.Toggle(s.Filters.Actors, model.ActorUser)
		return m.applySettings(s)

	case "group product":
		s.Notifications.GroupNotificationsByProduct = !s.Notifications.GroupNotificationsByProduct
		return m.applySettings(s)

	case "group title":
		s.Notifications.GroupNotificationsByTitle = !s.Notifications.GroupNotificationsByTitle
		return m.applySettings(s)

	case "set":
		if len(c.Args) != 2 {
			m.message = "usage: set <key> <value>"
			return nil
		}
		key := resolveSettingKey(c.Args[0])
		if err := s.Set(key, c.Args[1]); err != nil {
			m.message = err.Error()
			return nil
		}
		m.message = fmt.Sprintf("%s = %s", key, c.Args[1])
		return m.applySettings(s)

	case "login":
		return m.openLogin("")

	case "logout":
		id := ""
		if len(c.Args) > 0 {
			id = c.Args[0]
		} else if account, ok := m.list.SelectedAccount(); ok {
			id = account.ID
		}
		if id == "" {
			m.message = "usage: logout <account-id>"
			return nil
		}
		return m.logout(id)

	case "settings", "config":
		return m.openSettings()

	case "help":
		m.switchTo(ViewHelp)
		return nil

	case "quit", "q":
		m.poller.Stop()
		return tea.Quit

	default:
		m.message = fmt.Sprintf("unknown command %q", c.Name)
		return nil
	}
}

// resolveSettingKey maps a lower-cased palette key back to its canonical
// spelling.
func resolveSettingKey(k string) string {
	for _, known := range model.SettingKeys() {
		if strings.EqualFold(known, k) {
			return known
		}
	}
	return k
}

// describeMutation returns the status line for a finished mutation. A
// failure that left the optimistic change in place is only logged.
func describeMutation(r state.MutationResult) string {
	if r.Err != nil {
		if r.Reverted {
			return "Update failed, change reverted: " + r.Err.Error()
		}
		return ""
	}
	if r.Target == "" {
		return ""
	}
	if r.Removed {
		return fmt.Sprintf("Marked as %s and removed", r.Target)
	}
	return fmt.Sprintf("Marked as %s", r.Target)
}
