package notifications

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notification"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/state"
	"github.com/nhle/atlassify/internal/theme"
)

// AccountHeader starts an account's section.
type AccountHeader struct {
	Account model.Account
	Count   int
	HasMore bool
	Err     error
}

func (h AccountHeader) FilterValue() string { return h.Account.Label() }

// ProductHeader starts a product cluster inside an account section.
type ProductHeader struct {
	Account model.Account
	Product model.Product
	Count   int
}

func (h ProductHeader) FilterValue() string { return string(h.Product) }

// NotificationItem wraps a notification so it can be used in a bubbles/list.
type NotificationItem struct {
	Notification model.AtlassifyNotification
}

func (i NotificationItem) FilterValue() string { return i.Notification.Message }

// BuildItems flattens the state into list rows: one header per account,
// then its filtered notifications, clustered under product headers when
// grouping by product.
func BuildItems(view state.View, settings model.Settings) []list.Item {
	var items []list.Item

	for _, acc := range view.Accounts {
		filtered := notification.Filter(acc.Notifications, settings.Filters)

		items = append(items, AccountHeader{
			Account: acc.Account,
			Count:   len(filtered),
			HasMore: acc.HasMoreNotifications,
			Err:     acc.Error,
		})

		if !settings.Notifications.GroupNotificationsByProduct {
			for _, n := range filtered {
				items = append(items, NotificationItem{Notification: n})
			}
			continue
		}

		groups := notification.GroupByProduct(
			filtered,
			settings.Notifications.GroupNotificationsByProductAlphabetically,
		)
		for _, g := range groups {
			items = append(items, ProductHeader{
				Account: acc.Account,
				Product: g.Product,
				Count:   len(g.Notifications),
			})
			for _, n := range g.Notifications {
				items = append(items, NotificationItem{Notification: n})
			}
		}
	}

	return items
}

// ItemDelegate implements list.ItemDelegate for rendering list rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	selected := index == m.Index()

	var line string
	switch it := item.(type) {
	case AccountHeader:
		line = renderAccountHeader(it)
	case ProductHeader:
		line = theme.ProductStyle(it.Product).Render(
			fmt.Sprintf("%s (%d)", it.Product.Details().Name, it.Count),
		)
	case NotificationItem:
		line = renderNotification(it.Notification)
	default:
		return
	}

	if selected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func renderAccountHeader(h AccountHeader) string {
	title := theme.SectionStyle.Render(fmt.Sprintf("%s (%d)", h.Account.Label(), h.Count))
	if h.Err != nil {
		d := atlassian.Classify(h.Err).Details()
		return title + " " + theme.ErrorStyle.Render(d.Emoji+" "+d.Title)
	}
	if h.HasMore {
		return title + " " + theme.HelpStyle.Render("more available")
	}
	return title
}

func renderNotification(n model.AtlassifyNotification) string {
	marker := "●"
	if !n.IsUnread() {
		marker = "○"
	}

	badge := theme.ProductStyle(n.Product).Render(n.Product.Details().Code)

	title := n.Entity.Title
	if title == "" {
		title = n.Message
	}

	extra := ""
	if n.NotificationGroup.IsGroup() {
		extra = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(" +%d", n.NotificationGroup.Size-1))
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.UpdatedAt))

	line := fmt.Sprintf("%s %s %s%s  %s", marker, badge, oneLine(title), extra, timeStr)
	if !n.IsUnread() {
		line = theme.DimmedStyle.Render(line)
	}
	return line
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
