// Package notify turns fetch results into native notifications and tray
// updates.
package notify

import (
	"fmt"
	"strconv"

	"github.com/nhle/atlassify/internal/model"
)

// AppName is the title of summary notifications.
const AppName = "Atlassify"

// Bridge is the boundary to the desktop: native notifications, the tray
// indicator and sounds.
type Bridge interface {
	// RaiseNativeNotification shows an OS notification. url is nil for
	// summaries that do not point at a single item.
	RaiseNativeNotification(title, body string, url *string)
	UpdateTrayColor(unreadCount int)
	UpdateTrayTitle(text string)
	PlaySound(volume int)
}

// Dispatch announces newly seen notifications and refreshes the tray.
// The tray is updated on every call; native notifications and the sound
// only fire when there is something new.
func Dispatch(
	bridge Bridge,
	newOnes []model.AtlassifyNotification,
	unreadCount int,
	settings model.Settings,
) {
	UpdateTray(bridge, unreadCount, settings)

	if len(newOnes) == 0 {
		return
	}

	if settings.System.PlaySoundNewNotifications {
		bridge.PlaySound(settings.System.NotificationVolume)
	}

	if !settings.System.ShowNotifications {
		return
	}

	if len(newOnes) == 1 {
		n := newOnes[0]
		url := n.URL
		bridge.RaiseNativeNotification(Title(n), n.Message, &url)
		return
	}

	bridge.RaiseNativeNotification(AppName, fmt.Sprintf("You have %d notifications", len(newOnes)), nil)
}

// UpdateTray refreshes the tray colour and title for unreadCount.
func UpdateTray(bridge Bridge, unreadCount int, settings model.Settings) {
	bridge.UpdateTrayColor(TrayColorCount(unreadCount, settings.Tray))
	bridge.UpdateTrayTitle(TrayTitle(unreadCount, settings.Tray))
}

// TrayColorCount is the count the tray colour is computed from. With the
// unread active icon turned off the tray always stays idle.
func TrayColorCount(unreadCount int, tray model.TraySettings) int {
	if !tray.UseUnreadActiveIcon || unreadCount < 0 {
		return 0
	}
	return unreadCount
}

// TrayTitle is the text shown next to the tray icon.
func TrayTitle(unreadCount int, tray model.TraySettings) string {
	if !tray.ShowNotificationsCountInTray || unreadCount <= 0 {
		return ""
	}
	return strconv.Itoa(unreadCount)
}

// Title is the heading of a single-notification alert.
func Title(n model.AtlassifyNotification) string {
	name := n.Product.Details().Name
	if n.Entity.Title == "" {
		return name
	}
	return name + ": " + n.Entity.Title
}
