package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/state"
)

type fakeFetcher struct {
	mu    gosync.Mutex
	feeds map[string]*atlassian.FeedResult
	errs  map[string]error
	opts  []atlassian.FetchOptions
	gate  chan struct{}
}

func (f *fakeFetcher) FetchNotifications(
	ctx context.Context,
	account model.Account,
	opts atlassian.FetchOptions,
) (*atlassian.FeedResult, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if err := f.errs[account.ID]; err != nil {
		return nil, err
	}
	if feed, ok := f.feeds[account.ID]; ok {
		return feed, nil
	}
	return &atlassian.FeedResult{ResponseSize: -1}, nil
}

func (f *fakeFetcher) setFeed(accountID string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feeds == nil {
		f.feeds = make(map[string]*atlassian.FeedResult)
	}
	f.feeds[accountID] = feed(ids...)
}

func feed(ids ...string) *atlassian.FeedResult {
	var nodes []atlassian.GroupNode
	for _, id := range ids {
		nodes = append(nodes, atlassian.GroupNode{
			GroupID:   "g-" + id,
			GroupSize: 1,
			HeadNotification: atlassian.HeadNotification{
				NotificationID: id,
				ReadState:      "unread",
				Category:       "direct",
				Content:        atlassian.Content{Message: "update " + id, URL: "https://example.com/" + id},
			},
		})
	}
	return &atlassian.FeedResult{
		Feed:         atlassian.NotificationFeed{Nodes: nodes},
		ResponseSize: len(nodes),
	}
}

var (
	alice = model.Account{ID: "acc-alice", Username: "alice@example.com"}
	bob   = model.Account{ID: "acc-bob", Username: "bob@example.com"}
)

func badCreds() error {
	return &atlassian.APIError{Type: atlassian.ErrorBadCredentials, Status: 401}
}

func TestFetchAll_PreservesOrderAndIsolatesFailures(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{bob.ID: badCreds()}}
	f.setFeed(alice.ID, "a1", "a2")

	results := FetchAll(context.Background(), f, []model.Account{alice, bob}, model.DefaultSettings(), 25)

	require.Len(t, results, 2)
	assert.Equal(t, alice.ID, results[0].Account.ID)
	assert.NoError(t, results[0].Error)
	assert.Len(t, results[0].Notifications, 2)

	assert.Equal(t, bob.ID, results[1].Account.ID)
	assert.Equal(t, atlassian.ErrorBadCredentials, atlassian.Classify(results[1].Error))
	assert.Empty(t, results[1].Notifications)

	for _, o := range f.opts {
		assert.Equal(t, atlassian.FetchOptions{First: 25, Flat: false, UnreadOnly: true}, o)
	}
}

func TestGlobalError(t *testing.T) {
	network := &atlassian.APIError{Type: atlassian.ErrorNetwork}

	tests := []struct {
		name    string
		results []model.AccountNotifications
		want    atlassian.ErrorType
	}{
		{"no accounts", nil, ""},
		{"all identical", []model.AccountNotifications{{Error: badCreds()}, {Error: badCreds()}}, atlassian.ErrorBadCredentials},
		{"mixed types", []model.AccountNotifications{{Error: badCreds()}, {Error: network}}, ""},
		{"one healthy", []model.AccountNotifications{{Error: badCreds()}, {}}, ""},
		{"first healthy", []model.AccountNotifications{{}, {Error: badCreds()}}, ""},
		{"single failure", []model.AccountNotifications{{Error: errors.New("boom")}}, atlassian.ErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GlobalError(tt.results))
		})
	}
}

func TestAuthFailures(t *testing.T) {
	got := AuthFailures([]model.AccountNotifications{
		{Account: alice},
		{Account: bob, Error: badCreds()},
	})
	assert.Equal(t, []model.Account{bob}, got)
}

type countingBridge struct {
	mu     gosync.Mutex
	raised int
	titles []string
}

func (b *countingBridge) RaiseNativeNotification(string, string, *string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raised++
}

func (b *countingBridge) UpdateTrayColor(int) {}

func (b *countingBridge) UpdateTrayTitle(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.titles = append(b.titles, text)
}

func (b *countingBridge) PlaySound(int) {}

func newPoller(f Fetcher, b *countingBridge, accounts ...model.Account) (*Poller, *state.Container) {
	c := state.New(nil, model.DefaultSettings())
	p := New(f, c, b, func() []model.Account { return accounts }, time.Hour, 50)
	return p, c
}

func TestRunOnce_DiffsAcrossCycles(t *testing.T) {
	f := &fakeFetcher{}
	f.setFeed(alice.ID, "a1", "a2")
	b := &countingBridge{}
	p, c := newPoller(f, b, alice)

	msg, ran := p.RunOnce(context.Background())
	require.True(t, ran)
	assert.Equal(t, 2, msg.NewCount)
	assert.Equal(t, 2, msg.State.UnreadCount)
	assert.Equal(t, state.StatusSuccess, msg.State.Status)

	f.setFeed(alice.ID, "a2", "a3")
	msg, ran = p.RunOnce(context.Background())
	require.True(t, ran)
	assert.Equal(t, 1, msg.NewCount)

	assert.Equal(t, 2, b.raised)
	assert.Equal(t, []string{"2", "2"}, b.titles)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.Equal(t, 2, c.UnreadCount())
}

func TestRunOnce_GlobalErrorKeepsPreviousList(t *testing.T) {
	f := &fakeFetcher{}
	f.setFeed(alice.ID, "a1")
	p, c := newPoller(f, &countingBridge{}, alice, bob)

	_, ran := p.RunOnce(context.Background())
	require.True(t, ran)

	f.errs = map[string]error{alice.ID: badCreds(), bob.ID: badCreds()}
	msg, ran := p.RunOnce(context.Background())
	require.True(t, ran)

	assert.Equal(t, atlassian.ErrorBadCredentials, msg.GlobalError)
	assert.Equal(t, state.StatusError, msg.State.Status)
	assert.ElementsMatch(t, []model.Account{alice, bob}, msg.AuthErrors)
	assert.Equal(t, 1, c.UnreadCount())
	assert.Equal(t, SyncError, p.Status().State)
}

func TestRunOnce_SkipsOverlappingCycle(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	p, _ := newPoller(f, &countingBridge{}, alice)

	done := make(chan bool)
	go func() {
		_, ran := p.RunOnce(context.Background())
		done <- ran
	}()

	require.Eventually(t, p.inFlight.Load, time.Second, 5*time.Millisecond)

	_, ran := p.RunOnce(context.Background())
	assert.False(t, ran)
	assert.Equal(t, int64(1), p.Skipped())

	close(f.gate)
	assert.True(t, <-done)
}

func TestPoller_StartAndRefresh(t *testing.T) {
	f := &fakeFetcher{}
	f.setFeed(alice.ID, "a1")
	p, _ := newPoller(f, &countingBridge{}, alice)

	cmd := p.Start()
	require.NotNil(t, cmd)
	t.Cleanup(p.Stop)

	first, ok := cmd().(CycleResultMsg)
	require.True(t, ok)
	assert.Equal(t, 1, first.NewCount)

	f.setFeed(alice.ID, "a1", "a2")
	p.Refresh()

	select {
	case msg := <-p.Results():
		assert.Equal(t, 1, msg.NewCount)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not produce a cycle")
	}

	assert.Nil(t, p.Start(), "second start is a no-op")
}

func TestPoller_SetInterval(t *testing.T) {
	p, _ := newPoller(&fakeFetcher{}, &countingBridge{})

	p.SetInterval(5 * time.Second)
	p.SetInterval(10 * time.Second)
	p.SetInterval(0)

	assert.Equal(t, 10*time.Second, p.Interval())
	assert.Equal(t, 10*time.Second, <-p.intervalCh)
}
