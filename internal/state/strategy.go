package state

import (
	"context"
	"errors"

	"github.com/nhle/atlassify/internal/model"
)

// Mutator issues read-state mutations against the API.
// *atlassian.Client satisfies it.
type Mutator interface {
	MarkAsRead(ctx context.Context, account model.Account, ids []string) error
	MarkAsUnread(ctx context.Context, account model.Account, ids []string) error
	MarkGroupAsRead(ctx context.Context, account model.Account, groupID string) error
	MarkGroupAsUnread(ctx context.Context, account model.Account, groupID string) error
}

// MutationStrategy chooses the request shape of a read-state mutation.
type MutationStrategy interface {
	Name() string
	Apply(
		ctx context.Context,
		m Mutator,
		account model.Account,
		target model.ReadState,
		notifications []model.AtlassifyNotification,
	) error
}

// SelectStrategy returns the strategy matching the grouping setting:
// grouped feeds are mutated by group ID, flat feeds by notification ID.
func SelectStrategy(s model.NotificationSettings) MutationStrategy {
	if s.GroupNotificationsByTitle {
		return ByGroupIDStrategy{}
	}
	return ByIDsStrategy{}
}

// ByIDsStrategy sends one mutation carrying every notification ID.
type ByIDsStrategy struct{}

func (ByIDsStrategy) Name() string { return "by-ids" }

func (ByIDsStrategy) Apply(
	ctx context.Context,
	m Mutator,
	account model.Account,
	target model.ReadState,
	notifications []model.AtlassifyNotification,
) error {
	return markIDs(ctx, m, account, target, notificationIDs(notifications))
}

// ByGroupIDStrategy sends one mutation per distinct notification group.
// Notifications without a group fall back to a single by-ID mutation.
type ByGroupIDStrategy struct{}

func (ByGroupIDStrategy) Name() string { return "by-group-id" }

func (ByGroupIDStrategy) Apply(
	ctx context.Context,
	m Mutator,
	account model.Account,
	target model.ReadState,
	notifications []model.AtlassifyNotification,
) error {
	var errs []error
	var loose, groupIDs []string
	seen := make(map[string]struct{})
	for _, n := range notifications {
		gid := n.NotificationGroup.ID
		if gid == "" {
			loose = append(loose, n.ID)
			continue
		}
		if _, ok := seen[gid]; ok {
			continue
		}
		seen[gid] = struct{}{}
		groupIDs = append(groupIDs, gid)
	}

	for _, gid := range groupIDs {
		var err error
		if target == model.ReadStateRead {
			err = m.MarkGroupAsRead(ctx, account, gid)
		} else {
			err = m.MarkGroupAsUnread(ctx, account, gid)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(loose) > 0 {
		if err := markIDs(ctx, m, account, target, loose); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func markIDs(
	ctx context.Context,
	m Mutator,
	account model.Account,
	target model.ReadState,
	ids []string,
) error {
	if len(ids) == 0 {
		return nil
	}
	if target == model.ReadStateRead {
		return m.MarkAsRead(ctx, account, ids)
	}
	return m.MarkAsUnread(ctx, account, ids)
}
