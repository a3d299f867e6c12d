package state

import (
	"slices"

	"github.com/nhle/atlassify/internal/model"
)

// ApplyReadState returns a copy of accounts where the notifications of
// accountID whose IDs are in ids carry readState. The input is not
// modified; untouched accounts share their notification slices.
func ApplyReadState(
	accounts []model.AccountNotifications,
	accountID string,
	ids []string,
	readState model.ReadState,
) []model.AccountNotifications {
	set := idSet(ids)
	out := slices.Clone(accounts)
	for i, acc := range out {
		if acc.Account.ID != accountID {
			continue
		}
		next := make([]model.AtlassifyNotification, len(acc.Notifications))
		for j, n := range acc.Notifications {
			if _, ok := set[n.ID]; ok {
				n.ReadState = readState
			}
			next[j] = n
		}
		out[i].Notifications = next
	}
	return out
}

// RemoveNotifications returns a copy of accounts without the notifications
// of accountID whose IDs are in ids.
func RemoveNotifications(
	accounts []model.AccountNotifications,
	accountID string,
	ids []string,
) []model.AccountNotifications {
	set := idSet(ids)
	out := slices.Clone(accounts)
	for i, acc := range out {
		if acc.Account.ID != accountID {
			continue
		}
		out[i].Notifications = slices.DeleteFunc(slices.Clone(acc.Notifications), func(n model.AtlassifyNotification) bool {
			_, ok := set[n.ID]
			return ok
		})
	}
	return out
}

// ShouldRemove reports whether a transition to target drops the affected
// notifications from the list. Only read transitions remove, and only when
// the feed is unread-only and removal is not delayed until the next poll.
func ShouldRemove(target model.ReadState, s model.NotificationSettings) bool {
	return target == model.ReadStateRead &&
		s.FetchOnlyUnreadNotifications &&
		!s.DelayNotificationState
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func notificationIDs(ns []model.AtlassifyNotification) []string {
	ids := make([]string, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.ID)
	}
	return ids
}

func cloneAccounts(accounts []model.AccountNotifications) []model.AccountNotifications {
	out := make([]model.AccountNotifications, len(accounts))
	for i, acc := range accounts {
		acc.Notifications = slices.Clone(acc.Notifications)
		out[i] = acc
	}
	return out
}
