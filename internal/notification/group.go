package notification

import (
	"sort"

	"github.com/nhle/atlassify/internal/model"
)

// ProductGroup is a cluster of notifications sharing a product.
type ProductGroup struct {
	Product       model.Product
	Notifications []model.AtlassifyNotification
}

// GroupByProduct clusters notifications by product. Clusters appear in
// first-seen order, or sorted by product name when alphabetical is set.
// Order inside a cluster is the input order. Notifications without a
// product are left out.
func GroupByProduct(
	notifications []model.AtlassifyNotification,
	alphabetical bool,
) []ProductGroup {
	index := make(map[model.Product]int)
	var groups []ProductGroup

	for _, n := range notifications {
		if n.Product == "" {
			continue
		}
		i, ok := index[n.Product]
		if !ok {
			i = len(groups)
			index[n.Product] = i
			groups = append(groups, ProductGroup{Product: n.Product})
		}
		groups[i].Notifications = append(groups[i].Notifications, n)
	}

	if alphabetical {
		sort.SliceStable(groups, func(a, b int) bool {
			return groups[a].Product < groups[b].Product
		})
	}
	return groups
}

// Arrange returns notifications in display order for the given settings:
// as received, or flattened product clusters when grouping by product.
func Arrange(
	notifications []model.AtlassifyNotification,
	settings model.NotificationSettings,
) []model.AtlassifyNotification {
	if !settings.GroupNotificationsByProduct {
		return notifications
	}

	groups := GroupByProduct(notifications, settings.GroupNotificationsByProductAlphabetically)
	out := make([]model.AtlassifyNotification, 0, len(notifications))
	for _, g := range groups {
		out = append(out, g.Notifications...)
	}
	return out
}
