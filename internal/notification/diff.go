package notification

import "github.com/nhle/atlassify/internal/model"

// NewNotifications returns the notifications in current that were not in
// previous for the same account. Accounts absent from previous contribute
// all of their notifications; accounts only in previous contribute
// nothing. Order follows current.
func NewNotifications(previous, current []model.AccountNotifications) []model.AtlassifyNotification {
	seen := make(map[string]map[string]struct{}, len(previous))
	for _, acc := range previous {
		ids := make(map[string]struct{}, len(acc.Notifications))
		for _, n := range acc.Notifications {
			ids[n.ID] = struct{}{}
		}
		seen[acc.Account.ID] = ids
	}

	var out []model.AtlassifyNotification
	for _, acc := range current {
		ids, known := seen[acc.Account.ID]
		for _, n := range acc.Notifications {
			if !known {
				out = append(out, n)
				continue
			}
			if _, ok := ids[n.ID]; !ok {
				out = append(out, n)
			}
		}
	}
	return out
}
