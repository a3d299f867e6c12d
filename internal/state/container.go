// Package state owns the in-memory notification list. Every write goes
// through a Container method; readers get deep-copied snapshots.
package state

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notification"
	"github.com/nhle/atlassify/internal/source/atlassian"
)

// Status is the coarse state of the latest fetch cycle.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FailurePolicy decides what happens to an optimistic local change when
// the server mutation behind it fails.
type FailurePolicy int

const (
	// KeepLocalState leaves the local change in place. The next poll
	// cycle reconciles with the server.
	KeepLocalState FailurePolicy = iota

	// RevertLocalState restores the list as it was before the change,
	// unless another write has happened since.
	RevertLocalState
)

// Opener opens notification URLs.
type Opener interface {
	Open(url string, pref model.OpenPreference) error
}

// View is a point-in-time copy of the container.
type View struct {
	Accounts    []model.AccountNotifications
	Status      Status
	GlobalError atlassian.ErrorType
	UnreadCount int
}

// MutationResult reports the outcome of a read-state transition.
type MutationResult struct {
	Target   model.ReadState
	Strategy string
	Removed  bool
	Reverted bool
	State    View

	// Err is the mutation failure, if any. The local change has already
	// been applied by the time it is reported.
	Err error
}

// Option configures a Container.
type Option func(*Container)

// WithFailurePolicy overrides the default KeepLocalState policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Container) { c.policy = p }
}

// WithOpener sets the URL opener used by Open.
func WithOpener(o Opener) Option {
	return func(c *Container) { c.opener = o }
}

// Container is the single writer of the notification list.
type Container struct {
	mu          sync.Mutex
	accounts    []model.AccountNotifications
	status      Status
	globalError atlassian.ErrorType
	settings    model.Settings
	generation  uint64

	mutator Mutator
	opener  Opener
	policy  FailurePolicy
}

// New returns an empty container.
func New(m Mutator, settings model.Settings, opts ...Option) *Container {
	c := &Container{
		mutator:  m,
		settings: settings,
		status:   StatusSuccess,
		policy:   KeepLocalState,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the settings currently in effect.
func (c *Container) Settings() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetSettings replaces the settings used by later operations.
func (c *Container) SetSettings(s model.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// BeginFetch marks a fetch cycle as in flight.
func (c *Container) BeginFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusLoading
}

// ReplaceAll swaps in the results of a complete fetch cycle and returns
// the notifications that were not present before.
func (c *Container) ReplaceAll(results []model.AccountNotifications) []model.AtlassifyNotification {
	next := cloneAccounts(results)

	c.mu.Lock()
	defer c.mu.Unlock()

	newOnes := notification.NewNotifications(c.accounts, next)
	c.accounts = next
	c.status = StatusSuccess
	c.globalError = ""
	c.generation++
	return newOnes
}

// Fail records a cycle in which every account failed the same way. The
// previous list is kept.
func (c *Container) Fail(errType atlassian.ErrorType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusError
	c.globalError = errType
}

// RemoveAccount drops an account's notifications, e.g. after logout.
func (c *Container) RemoveAccount(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]model.AccountNotifications, 0, len(c.accounts))
	for _, acc := range c.accounts {
		if acc.Account.ID != accountID {
			next = append(next, acc)
		}
	}
	c.accounts = next
	c.generation++
}

// UpdateAccount swaps in a changed account, e.g. after logging in again
// with a new token, so later mutations use the new credentials. It reports
// whether the account had anything listed.
func (c *Container) UpdateAccount(account model.Account) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneAccounts(c.accounts)
	found := false
	for i := range next {
		if next[i].Account.ID != account.ID {
			continue
		}
		found = true
		next[i].Account = account
		for j := range next[i].Notifications {
			next[i].Notifications[j].Account = account
		}
	}
	if !found {
		return false
	}
	c.accounts = next
	c.generation++
	return true
}

// Snapshot returns a deep copy of the current state.
func (c *Container) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// UnreadCount returns the number of unread notifications across accounts.
func (c *Container) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return unreadCount(c.accounts)
}

// MarkAsRead transitions notifications of account to read.
func (c *Container) MarkAsRead(
	ctx context.Context,
	account model.Account,
	notifications []model.AtlassifyNotification,
) MutationResult {
	return c.transition(ctx, account, notifications, model.ReadStateRead)
}

// MarkAsUnread transitions notifications of account to unread. Unread
// transitions never remove anything from the list.
func (c *Container) MarkAsUnread(
	ctx context.Context,
	account model.Account,
	notifications []model.AtlassifyNotification,
) MutationResult {
	return c.transition(ctx, account, notifications, model.ReadStateUnread)
}

// MarkAllAsRead marks every unread notification of account as read.
func (c *Container) MarkAllAsRead(ctx context.Context, account model.Account) MutationResult {
	c.mu.Lock()
	var unread []model.AtlassifyNotification
	for _, acc := range c.accounts {
		if acc.Account.ID != account.ID {
			continue
		}
		for _, n := range acc.Notifications {
			if n.IsUnread() {
				unread = append(unread, n)
			}
		}
	}
	c.mu.Unlock()

	return c.MarkAsRead(ctx, account, unread)
}

// Open opens the notification's URL and, when MarkAsReadOnOpen is set,
// marks it read. The returned error is the opener's; mutation failures
// are reported in the result.
func (c *Container) Open(ctx context.Context, n model.AtlassifyNotification) (MutationResult, error) {
	settings := c.Settings()

	var openErr error
	if c.opener != nil && n.URL != "" {
		openErr = c.opener.Open(n.URL, settings.System.OpenLinks)
	}

	if !settings.Notifications.MarkAsReadOnOpen || !n.IsUnread() {
		return MutationResult{State: c.Snapshot()}, openErr
	}
	return c.MarkAsRead(ctx, n.Account, []model.AtlassifyNotification{n}), openErr
}

// transition applies the change locally, then issues the mutation.
func (c *Container) transition(
	ctx context.Context,
	account model.Account,
	notifications []model.AtlassifyNotification,
	target model.ReadState,
) MutationResult {
	if len(notifications) == 0 {
		return MutationResult{Target: target, State: c.Snapshot()}
	}

	ids := notificationIDs(notifications)

	c.mu.Lock()
	settings := c.settings
	before := c.accounts
	next := ApplyReadState(c.accounts, account.ID, ids, target)
	removed := ShouldRemove(target, settings.Notifications)
	if removed {
		next = RemoveNotifications(next, account.ID, ids)
	}
	c.accounts = next
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	strategy := SelectStrategy(settings.Notifications)
	result := MutationResult{
		Target:   target,
		Strategy: strategy.Name(),
		Removed:  removed,
	}

	if c.mutator != nil {
		result.Err = strategy.Apply(ctx, c.mutator, account, target, notifications)
	}

	if result.Err != nil {
		logging.WithAccount(account).WithFields(logrus.Fields{
			"notifications": len(notifications),
			"target":        target,
			"strategy":      strategy.Name(),
			"error_type":    atlassian.Classify(result.Err),
		}).WithError(result.Err).Error("read state mutation failed")

		if c.policy == RevertLocalState {
			result.Reverted = c.revert(gen, before)
		}
	}

	result.State = c.Snapshot()
	return result
}

// revert restores before when nothing else has written since gen.
func (c *Container) revert(gen uint64, before []model.AccountNotifications) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.accounts = before
	c.generation++
	return true
}

func (c *Container) viewLocked() View {
	return View{
		Accounts:    cloneAccounts(c.accounts),
		Status:      c.status,
		GlobalError: c.globalError,
		UnreadCount: unreadCount(c.accounts),
	}
}

func unreadCount(accounts []model.AccountNotifications) int {
	count := 0
	for _, acc := range accounts {
		for _, n := range acc.Notifications {
			if n.IsUnread() {
				count++
			}
		}
	}
	return count
}
