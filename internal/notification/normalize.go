// Package notification holds the pure notification pipeline: normalizing
// raw feed records, classifying them, and filtering, grouping and
// diffing the resulting lists. Nothing in this package performs I/O.
package notification

import (
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
)

// Normalize maps a fetched feed onto AtlassifyNotifications owned by
// account, classifying each one. Missing optional fields stay nil/zero.
func Normalize(account model.Account, feed atlassian.NotificationFeed) []model.AtlassifyNotification {
	out := make([]model.AtlassifyNotification, 0, len(feed.Nodes))
	for _, node := range feed.Nodes {
		out = append(out, normalizeNode(account, node))
	}
	return out
}

func normalizeNode(account model.Account, node atlassian.GroupNode) model.AtlassifyNotification {
	head := node.HeadNotification
	content := head.Content

	n := model.AtlassifyNotification{
		ID:        head.NotificationID,
		Message:   content.Message,
		UpdatedAt: head.Timestamp,
		ReadState: model.ReadState(head.ReadState),
		Category:  model.Category(head.Category),
		Type:      content.Type,
		URL:       content.URL,
		NotificationGroup: model.NotificationGroup{
			ID:               node.GroupID,
			Size:             node.GroupSize,
			AdditionalActors: normalizeActors(node.AdditionalActors),
		},
		Account: account,
	}

	if content.Entity != nil {
		n.Entity = toLink(*content.Entity)
	}
	if len(content.Path) > 0 {
		p := toLink(content.Path[0])
		n.Path = &p
	}
	if content.Actor != nil {
		n.Actor = toActor(*content.Actor)
	}

	n.Product = InferProduct(head.AnalyticsAttributes)
	n.Actor.Type = InferActorType(n)
	n.Engagement = InferEngagement(n.Message)

	return n
}

func normalizeActors(raw []atlassian.RawActor) []model.Actor {
	if len(raw) == 0 {
		return nil
	}
	actors := make([]model.Actor, 0, len(raw))
	for _, a := range raw {
		actors = append(actors, toActor(a))
	}
	return actors
}

func toActor(a atlassian.RawActor) model.Actor {
	actor := model.Actor{AvatarURL: a.AvatarURL}
	if a.DisplayName != nil {
		actor.DisplayName = *a.DisplayName
	}
	return actor
}

func toLink(l atlassian.RawLink) model.Link {
	return model.Link{Title: l.Title, IconURL: l.IconURL, URL: l.URL}
}

// ToAccountNotifications builds the per-account container for a fetched
// feed. In unread-only mode the gateway may cap the page below what it
// reports in responseSize; such pages are flagged as having more.
func ToAccountNotifications(
	account model.Account,
	result *atlassian.FeedResult,
	unreadOnly bool,
) model.AccountNotifications {
	notifications := Normalize(account, result.Feed)

	hasMore := result.Feed.PageInfo.HasNextPage
	if unreadOnly && result.ResponseSize > len(result.Feed.Nodes) {
		hasMore = true
	}

	return model.AccountNotifications{
		Account:              account,
		Notifications:        notifications,
		HasMoreNotifications: hasMore,
	}
}
