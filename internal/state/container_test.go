package state

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
)

type call struct {
	method string
	ids    []string
	group  string
}

type fakeMutator struct {
	mu    gosync.Mutex
	calls []call
	err   error

	// gate, when set, blocks every call until closed.
	gate chan struct{}
}

func (f *fakeMutator) record(c call) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeMutator) MarkAsRead(_ context.Context, _ model.Account, ids []string) error {
	return f.record(call{method: "read", ids: ids})
}

func (f *fakeMutator) MarkAsUnread(_ context.Context, _ model.Account, ids []string) error {
	return f.record(call{method: "unread", ids: ids})
}

func (f *fakeMutator) MarkGroupAsRead(_ context.Context, _ model.Account, groupID string) error {
	return f.record(call{method: "group-read", group: groupID})
}

func (f *fakeMutator) MarkGroupAsUnread(_ context.Context, _ model.Account, groupID string) error {
	return f.record(call{method: "group-unread", group: groupID})
}

func (f *fakeMutator) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

var (
	alice = model.Account{ID: "acc-alice", Username: "alice@example.com"}
	bob   = model.Account{ID: "acc-bob", Username: "bob@example.com"}
)

func notif(account model.Account, id, group string) model.AtlassifyNotification {
	return model.AtlassifyNotification{
		ID:                id,
		ReadState:         model.ReadStateUnread,
		Product:           model.ProductJira,
		URL:               "https://example.atlassian.net/browse/" + id,
		Account:           account,
		NotificationGroup: model.NotificationGroup{ID: group, Size: 1},
	}
}

func seed(c *Container) []model.AccountNotifications {
	results := []model.AccountNotifications{
		{Account: alice, Notifications: []model.AtlassifyNotification{
			notif(alice, "a1", "g1"),
			notif(alice, "a2", "g1"),
			notif(alice, "a3", "g2"),
		}},
		{Account: bob, Notifications: []model.AtlassifyNotification{
			notif(bob, "b1", "g9"),
		}},
	}
	c.ReplaceAll(results)
	return results
}

func settingsWith(fetchOnlyUnread, delay, groupByTitle bool) model.Settings {
	s := model.DefaultSettings()
	s.Notifications.FetchOnlyUnreadNotifications = fetchOnlyUnread
	s.Notifications.DelayNotificationState = delay
	s.Notifications.GroupNotificationsByTitle = groupByTitle
	return s
}

func find(v View, accountID, id string) (model.AtlassifyNotification, bool) {
	for _, acc := range v.Accounts {
		if acc.Account.ID != accountID {
			continue
		}
		for _, n := range acc.Notifications {
			if n.ID == id {
				return n, true
			}
		}
	}
	return model.AtlassifyNotification{}, false
}

func TestMarkAsRead_ThenUnreadRestores(t *testing.T) {
	m := &fakeMutator{}
	c := New(m, settingsWith(false, false, false))
	seed(c)
	ctx := context.Background()

	target := []model.AtlassifyNotification{notif(alice, "a1", "g1")}

	res := c.MarkAsRead(ctx, alice, target)
	require.NoError(t, res.Err)
	n, ok := find(res.State, alice.ID, "a1")
	require.True(t, ok)
	assert.Equal(t, model.ReadStateRead, n.ReadState)

	res = c.MarkAsUnread(ctx, alice, target)
	require.NoError(t, res.Err)
	n, ok = find(res.State, alice.ID, "a1")
	require.True(t, ok)
	assert.Equal(t, model.ReadStateUnread, n.ReadState)
}

func TestMarkAsRead_RemovalGating(t *testing.T) {
	tests := []struct {
		name            string
		fetchOnlyUnread bool
		delay           bool
		wantRemoved     bool
	}{
		{"unread only, immediate", true, false, true},
		{"unread only, delayed", true, true, false},
		{"all states, immediate", false, false, false},
		{"all states, delayed", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeMutator{}, settingsWith(tt.fetchOnlyUnread, tt.delay, false))
			seed(c)

			res := c.MarkAsRead(context.Background(), alice, []model.AtlassifyNotification{notif(alice, "a2", "g1")})
			require.NoError(t, res.Err)
			assert.Equal(t, tt.wantRemoved, res.Removed)

			n, ok := find(res.State, alice.ID, "a2")
			if tt.wantRemoved {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, model.ReadStateRead, n.ReadState)
		})
	}
}

func TestMarkAsUnread_NeverRemoves(t *testing.T) {
	c := New(&fakeMutator{}, settingsWith(true, false, false))
	seed(c)

	res := c.MarkAsUnread(context.Background(), alice, []model.AtlassifyNotification{notif(alice, "a1", "g1")})
	assert.False(t, res.Removed)
	_, ok := find(res.State, alice.ID, "a1")
	assert.True(t, ok)
}

func TestMarkAsRead_OnlyTouchesOwningAccount(t *testing.T) {
	c := New(&fakeMutator{}, settingsWith(false, false, false))
	seed(c)

	// Same ID under a different account must not change.
	res := c.MarkAsRead(context.Background(), bob, []model.AtlassifyNotification{notif(bob, "a1", "")})
	n, ok := find(res.State, alice.ID, "a1")
	require.True(t, ok)
	assert.Equal(t, model.ReadStateUnread, n.ReadState)
}

func TestMarkAsRead_StrategySelection(t *testing.T) {
	t.Run("by ids", func(t *testing.T) {
		m := &fakeMutator{}
		c := New(m, settingsWith(false, false, false))
		seed(c)

		res := c.MarkAsRead(context.Background(), alice, []model.AtlassifyNotification{
			notif(alice, "a1", "g1"),
			notif(alice, "a3", "g2"),
		})
		assert.Equal(t, "by-ids", res.Strategy)
		assert.Equal(t, []call{{method: "read", ids: []string{"a1", "a3"}}}, m.Calls())
	})

	t.Run("by group id", func(t *testing.T) {
		m := &fakeMutator{}
		c := New(m, settingsWith(false, false, true))
		seed(c)

		res := c.MarkAsUnread(context.Background(), alice, []model.AtlassifyNotification{
			notif(alice, "a1", "g1"),
			notif(alice, "a2", "g1"),
			notif(alice, "a3", "g2"),
			notif(alice, "a4", ""),
		})
		assert.Equal(t, "by-group-id", res.Strategy)
		assert.Equal(t, []call{
			{method: "group-unread", group: "g1"},
			{method: "group-unread", group: "g2"},
			{method: "unread", ids: []string{"a4"}},
		}, m.Calls())
	})
}

func TestUpdateAccount_ReplacesAccountOnEveryNotification(t *testing.T) {
	c := New(&fakeMutator{}, settingsWith(false, false, false))
	results := seed(c)

	relogged := alice
	relogged.EncryptedToken = "keyring:new"
	relogged.DisplayName = "Alice"
	require.True(t, c.UpdateAccount(relogged))

	v := c.Snapshot()
	require.Len(t, v.Accounts, 2)
	assert.Equal(t, relogged, v.Accounts[0].Account)
	for _, n := range v.Accounts[0].Notifications {
		assert.Equal(t, "keyring:new", n.Account.EncryptedToken)
	}
	assert.Equal(t, bob, v.Accounts[1].Account)
	assert.Equal(t, bob, v.Accounts[1].Notifications[0].Account)
	assert.Empty(t, results[0].Notifications[0].Account.EncryptedToken)

	assert.False(t, c.UpdateAccount(model.Account{ID: "acc-unknown"}))
}

func TestMarkAsRead_FailureKeepsLocalState(t *testing.T) {
	m := &fakeMutator{err: &atlassian.APIError{Type: atlassian.ErrorNetwork, Message: "offline"}}
	c := New(m, settingsWith(false, false, false))
	seed(c)

	res := c.MarkAsRead(context.Background(), alice, []model.AtlassifyNotification{notif(alice, "a1", "g1")})
	require.Error(t, res.Err)
	assert.Equal(t, atlassian.ErrorNetwork, atlassian.Classify(res.Err))
	assert.False(t, res.Reverted)

	n, ok := find(c.Snapshot(), alice.ID, "a1")
	require.True(t, ok)
	assert.Equal(t, model.ReadStateRead, n.ReadState)
}

func TestMarkAsRead_FailureReverts(t *testing.T) {
	m := &fakeMutator{err: errors.New("boom")}
	c := New(m, settingsWith(true, false, false), WithFailurePolicy(RevertLocalState))
	seed(c)

	res := c.MarkAsRead(context.Background(), alice, []model.AtlassifyNotification{notif(alice, "a1", "g1")})
	require.Error(t, res.Err)
	assert.True(t, res.Reverted)

	n, ok := find(c.Snapshot(), alice.ID, "a1")
	require.True(t, ok, "removed notification is restored")
	assert.Equal(t, model.ReadStateUnread, n.ReadState)
}

func TestMarkAsRead_RacingPollLastWriteWins(t *testing.T) {
	m := &fakeMutator{gate: make(chan struct{}), err: errors.New("late failure")}
	c := New(m, settingsWith(false, false, false), WithFailurePolicy(RevertLocalState))
	seed(c)

	done := make(chan MutationResult)
	go func() {
		done <- c.MarkAsRead(context.Background(), alice, []model.AtlassifyNotification{notif(alice, "a1", "g1")})
	}()

	// Wait for the optimistic write before the poll lands.
	require.Eventually(t, func() bool {
		n, _ := find(c.Snapshot(), alice.ID, "a1")
		return n.ReadState == model.ReadStateRead
	}, timeout, tick)

	fresh := []model.AccountNotifications{{Account: alice, Notifications: []model.AtlassifyNotification{
		notif(alice, "a1", "g1"),
		notif(alice, "a5", "g5"),
	}}}
	newOnes := c.ReplaceAll(fresh)
	require.Len(t, newOnes, 1)
	assert.Equal(t, "a5", newOnes[0].ID)

	close(m.gate)
	res := <-done
	assert.False(t, res.Reverted, "revert must not clobber a newer write")

	v := c.Snapshot()
	require.Len(t, v.Accounts, 1)
	n, ok := find(v, alice.ID, "a1")
	require.True(t, ok)
	assert.Equal(t, model.ReadStateUnread, n.ReadState, "poll was the last write")
}

func TestMarkAllAsRead(t *testing.T) {
	m := &fakeMutator{}
	c := New(m, settingsWith(true, false, false))
	seed(c)

	res := c.MarkAllAsRead(context.Background(), alice)
	require.NoError(t, res.Err)
	assert.Equal(t, []call{{method: "read", ids: []string{"a1", "a2", "a3"}}}, m.Calls())
	assert.Equal(t, 1, res.State.UnreadCount)
}

func TestMarkAllAsRead_NothingUnread(t *testing.T) {
	m := &fakeMutator{}
	c := New(m, settingsWith(false, false, false))

	res := c.MarkAllAsRead(context.Background(), alice)
	assert.NoError(t, res.Err)
	assert.Empty(t, m.Calls())
}

type fakeOpener struct {
	urls []string
	pref model.OpenPreference
}

func (o *fakeOpener) Open(url string, pref model.OpenPreference) error {
	o.urls = append(o.urls, url)
	o.pref = pref
	return nil
}

func TestOpen_MarksReadWhenConfigured(t *testing.T) {
	for _, markOnOpen := range []bool{true, false} {
		m := &fakeMutator{}
		o := &fakeOpener{}
		s := settingsWith(false, false, false)
		s.Notifications.MarkAsReadOnOpen = markOnOpen
		c := New(m, s, WithOpener(o))
		seed(c)

		res, err := c.Open(context.Background(), notif(alice, "a1", "g1"))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.atlassian.net/browse/a1"}, o.urls)
		assert.Equal(t, model.OpenForeground, o.pref)

		n, ok := find(res.State, alice.ID, "a1")
		require.True(t, ok)
		if markOnOpen {
			assert.Equal(t, model.ReadStateRead, n.ReadState)
			assert.Len(t, m.Calls(), 1)
		} else {
			assert.Equal(t, model.ReadStateUnread, n.ReadState)
			assert.Empty(t, m.Calls())
		}
	}
}

func TestSnapshot_IsIsolated(t *testing.T) {
	c := New(&fakeMutator{}, model.DefaultSettings())
	seed(c)

	v := c.Snapshot()
	v.Accounts[0].Notifications[0].ReadState = model.ReadStateRead

	n, _ := find(c.Snapshot(), alice.ID, "a1")
	assert.Equal(t, model.ReadStateUnread, n.ReadState)
}

func TestReplaceAll_DoesNotAliasInput(t *testing.T) {
	c := New(&fakeMutator{}, model.DefaultSettings())
	results := seed(c)

	results[0].Notifications[0].ReadState = model.ReadStateRead

	n, _ := find(c.Snapshot(), alice.ID, "a1")
	assert.Equal(t, model.ReadStateUnread, n.ReadState)
}

func TestStatusTransitions(t *testing.T) {
	c := New(&fakeMutator{}, model.DefaultSettings())
	seed(c)

	c.BeginFetch()
	assert.Equal(t, StatusLoading, c.Snapshot().Status)

	c.Fail(atlassian.ErrorBadCredentials)
	v := c.Snapshot()
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, atlassian.ErrorBadCredentials, v.GlobalError)
	assert.Len(t, v.Accounts, 2, "failed cycle keeps the previous list")

	c.ReplaceAll(nil)
	v = c.Snapshot()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Empty(t, v.GlobalError)
}

func TestRemoveAccount(t *testing.T) {
	c := New(&fakeMutator{}, model.DefaultSettings())
	seed(c)

	c.RemoveAccount(alice.ID)
	v := c.Snapshot()
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, bob.ID, v.Accounts[0].Account.ID)
	assert.Equal(t, 1, c.UnreadCount())
}
