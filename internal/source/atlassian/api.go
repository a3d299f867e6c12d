package atlassian

import (
	"context"
	"fmt"

	"github.com/nhle/atlassify/internal/model"
)

// FetchOptions shapes a MyNotifications query.
type FetchOptions struct {
	// First is the page size.
	First int

	// Flat requests ungrouped notifications. Grouped feeds collapse
	// related updates under a single head notification.
	Flat bool

	// UnreadOnly restricts the feed to unread notifications.
	UnreadOnly bool
}

// FetchOptionsFor derives the query shape from the user's settings.
func FetchOptionsFor(settings model.Settings, pageSize int) FetchOptions {
	return FetchOptions{
		First:      pageSize,
		Flat:       !settings.Notifications.GroupNotificationsByTitle,
		UnreadOnly: settings.Notifications.FetchOnlyUnreadNotifications,
	}
}

// FetchNotifications retrieves the notification feed for account.
func (c *Client) FetchNotifications(
	ctx context.Context,
	account model.Account,
	opts FetchOptions,
) (*FeedResult, error) {
	vars := map[string]any{
		"first": opts.First,
		"flat":  opts.Flat,
	}
	if opts.UnreadOnly {
		vars["readState"] = string(model.ReadStateUnread)
	}

	var data MyNotificationsData
	resp, err := c.Do(ctx, account, GraphQLRequest{
		Query:     myNotificationsQuery,
		Variables: vars,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetching notifications for %s: %w", account.Username, err)
	}

	return &FeedResult{
		Feed:         data.Notifications.NotificationFeed,
		ResponseSize: resp.Extensions.ResponseSize(),
	}, nil
}

// Me returns the authenticated user for account. It doubles as a
// credential check during login.
func (c *Client) Me(ctx context.Context, account model.Account) (*MeUser, error) {
	var data MeData
	if _, err := c.Do(ctx, account, GraphQLRequest{Query: meQuery}, &data); err != nil {
		return nil, fmt.Errorf("fetching user details for %s: %w", account.Username, err)
	}
	if data.Me.User.AccountID == "" {
		return nil, &APIError{Type: ErrorBadCredentials, Message: "no user bound to token"}
	}
	return &data.Me.User, nil
}

// MarkAsRead marks notifications read by their IDs.
func (c *Client) MarkAsRead(ctx context.Context, account model.Account, ids []string) error {
	return c.mutate(ctx, account, markByIDsAsReadMutation, map[string]any{"notificationIDs": ids})
}

// MarkAsUnread marks notifications unread by their IDs.
func (c *Client) MarkAsUnread(ctx context.Context, account model.Account, ids []string) error {
	return c.mutate(ctx, account, markByIDsAsUnreadMutation, map[string]any{"notificationIDs": ids})
}

// MarkGroupAsRead marks every notification of a group read.
func (c *Client) MarkGroupAsRead(ctx context.Context, account model.Account, groupID string) error {
	return c.mutate(ctx, account, markGroupAsReadMutation, map[string]any{"groupId": groupID})
}

// MarkGroupAsUnread marks every notification of a group unread.
func (c *Client) MarkGroupAsUnread(ctx context.Context, account model.Account, groupID string) error {
	return c.mutate(ctx, account, markGroupAsUnreadMutation, map[string]any{"groupId": groupID})
}

func (c *Client) mutate(
	ctx context.Context,
	account model.Account,
	mutation string,
	vars map[string]any,
) error {
	if _, err := c.Do(ctx, account, GraphQLRequest{Query: mutation, Variables: vars}, nil); err != nil {
		return fmt.Errorf("mutating notifications for %s: %w", account.Username, err)
	}
	return nil
}
