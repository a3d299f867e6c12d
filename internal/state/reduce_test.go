package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/atlassify/internal/model"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestApplyReadState_IsPure(t *testing.T) {
	in := []model.AccountNotifications{
		{Account: alice, Notifications: []model.AtlassifyNotification{notif(alice, "a1", ""), notif(alice, "a2", "")}},
		{Account: bob, Notifications: []model.AtlassifyNotification{notif(bob, "a1", "")}},
	}

	out := ApplyReadState(in, alice.ID, []string{"a1"}, model.ReadStateRead)

	assert.Equal(t, model.ReadStateRead, out[0].Notifications[0].ReadState)
	assert.Equal(t, model.ReadStateUnread, out[0].Notifications[1].ReadState)
	assert.Equal(t, model.ReadStateUnread, out[1].Notifications[0].ReadState)
	assert.Equal(t, model.ReadStateUnread, in[0].Notifications[0].ReadState, "input untouched")
}

func TestRemoveNotifications_IsPure(t *testing.T) {
	in := []model.AccountNotifications{
		{Account: alice, Notifications: []model.AtlassifyNotification{notif(alice, "a1", ""), notif(alice, "a2", "")}},
	}

	out := RemoveNotifications(in, alice.ID, []string{"a1", "missing"})

	assert.Len(t, out[0].Notifications, 1)
	assert.Equal(t, "a2", out[0].Notifications[0].ID)
	assert.Len(t, in[0].Notifications, 2)
	assert.Equal(t, "a1", in[0].Notifications[0].ID)
}

func TestShouldRemove(t *testing.T) {
	s := model.NotificationSettings{FetchOnlyUnreadNotifications: true}
	assert.True(t, ShouldRemove(model.ReadStateRead, s))
	assert.False(t, ShouldRemove(model.ReadStateUnread, s))

	s.DelayNotificationState = true
	assert.False(t, ShouldRemove(model.ReadStateRead, s))

	assert.False(t, ShouldRemove(model.ReadStateRead, model.NotificationSettings{}))
}

func TestSelectStrategy(t *testing.T) {
	assert.IsType(t, ByGroupIDStrategy{}, SelectStrategy(model.NotificationSettings{GroupNotificationsByTitle: true}))
	assert.IsType(t, ByIDsStrategy{}, SelectStrategy(model.NotificationSettings{}))
}
