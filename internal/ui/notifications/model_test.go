package notifications

import (
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/atlassify/internal/keys"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/state"
)

var jane = model.Account{ID: "jane", Username: "jane@example.com", DisplayName: "Jane"}

func n(id string, p model.Product, c model.Category) model.AtlassifyNotification {
	return model.AtlassifyNotification{
		ID:        id,
		Message:   "message " + id,
		ReadState: model.ReadStateUnread,
		Category:  c,
		Product:   p,
		Account:   jane,
	}
}

func sampleView() state.View {
	return state.View{
		Accounts: []model.AccountNotifications{{
			Account: jane,
			Notifications: []model.AtlassifyNotification{
				n("1", model.ProductJira, model.CategoryDirect),
				n("2", model.ProductConfluence, model.CategoryWatching),
				n("3", model.ProductJira, model.CategoryWatching),
				n("4", "", model.CategoryDirect),
			},
		}},
		UnreadCount: 4,
	}
}

func rowKinds(items []list.Item) []string {
	var out []string
	for _, it := range items {
		switch v := it.(type) {
		case AccountHeader:
			out = append(out, "account:"+v.Account.ID)
		case ProductHeader:
			out = append(out, "product:"+string(v.Product))
		case NotificationItem:
			out = append(out, v.Notification.ID)
		}
	}
	return out
}

func TestBuildItems_Natural(t *testing.T) {
	s := model.DefaultSettings()
	items := BuildItems(sampleView(), s)
	assert.Equal(t, []string{"account:jane", "1", "2", "3", "4"}, rowKinds(items))
}

func TestBuildItems_GroupedByProduct(t *testing.T) {
	s := model.DefaultSettings()
	s.Notifications.GroupNotificationsByProduct = true

	items := BuildItems(sampleView(), s)
	assert.Equal(t, []string{
		"account:jane",
		"product:jira", "1", "3",
		"product:confluence", "2",
	}, rowKinds(items))

	s.Notifications.GroupNotificationsByProductAlphabetically = true
	items = BuildItems(sampleView(), s)
	assert.Equal(t, []string{
		"account:jane",
		"product:confluence", "2",
		"product:jira", "1", "3",
	}, rowKinds(items))
}

func TestBuildItems_AppliesFilters(t *testing.T) {
	s := model.DefaultSettings()
	s.Filters.Categories = []model.Category{model.CategoryWatching}

	items := BuildItems(sampleView(), s)
	assert.Equal(t, []string{"account:jane", "2", "3"}, rowKinds(items))
	assert.Equal(t, 2, items[0].(AccountHeader).Count)
}

func TestBuildItems_AccountError(t *testing.T) {
	v := state.View{Accounts: []model.AccountNotifications{{Account: jane, Error: errors.New("boom")}}}
	items := BuildItems(v, model.DefaultSettings())
	require.Len(t, items, 1)
	assert.Error(t, items[0].(AccountHeader).Err)
}

func press(m Model, k string) (Model, tea.Msg) {
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestModel_MarkAndOpen(t *testing.T) {
	m := New(keys.DefaultKeyMap(), model.DefaultSettings(), 80, 20)
	m.SetState(sampleView())

	m, _ = press(m, "down")
	sel, ok := m.SelectedNotification()
	require.True(t, ok)
	assert.Equal(t, "1", sel.ID)

	_, msg := press(m, "x")
	mark, ok := msg.(MarkMsg)
	require.True(t, ok)
	assert.Equal(t, model.ReadStateRead, mark.Target)
	assert.Equal(t, jane.ID, mark.Account.ID)
	require.Len(t, mark.Notifications, 1)
	assert.Equal(t, "1", mark.Notifications[0].ID)

	_, msg = press(m, "u")
	assert.Equal(t, model.ReadStateUnread, msg.(MarkMsg).Target)

	_, msg = press(m, "enter")
	assert.Equal(t, "1", msg.(OpenMsg).Notification.ID)

	_, msg = press(m, "X")
	assert.Equal(t, jane.ID, msg.(MarkAllMsg).Account.ID)
}

func TestModel_FilterToggleEmitsSettings(t *testing.T) {
	m := New(keys.DefaultKeyMap(), model.DefaultSettings(), 80, 20)
	m.SetState(sampleView())

	m, _ = press(m, "1")
	assert.Equal(t, []model.Category{model.CategoryDirect}, m.Settings().Filters.Categories)
	assert.Equal(t, "1 filter active", m.FilterSummary())

	m, _ = press(m, "0")
	assert.True(t, m.Settings().Filters.IsEmpty())
	assert.Empty(t, m.FilterSummary())
}
