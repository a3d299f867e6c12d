package notification

import (
	"slices"

	"github.com/nhle/atlassify/internal/model"
)

// Filter applies the user's filter selections. Values selected within a
// dimension are OR-ed; active dimensions are AND-ed. With no active
// filters the input slice itself is returned, not a copy.
func Filter(
	notifications []model.AtlassifyNotification,
	filters model.FilterSettings,
) []model.AtlassifyNotification {
	if filters.IsEmpty() {
		return notifications
	}

	out := make([]model.AtlassifyNotification, 0, len(notifications))
	for _, n := range notifications {
		if Matches(n, filters) {
			out = append(out, n)
		}
	}
	return out
}

// Matches reports whether n passes every active filter dimension.
func Matches(n model.AtlassifyNotification, filters model.FilterSettings) bool {
	return matchDimension(filters.Engagements, n.Engagement) &&
		matchDimension(filters.Categories, n.Category) &&
		matchDimension(filters.ReadStates, n.ReadState) &&
		matchDimension(filters.Products, n.Product) &&
		matchDimension(filters.Actors, n.Actor.Type)
}

// matchDimension passes everything when nothing is selected.
func matchDimension[T comparable](selected []T, value T) bool {
	return len(selected) == 0 || slices.Contains(selected, value)
}
