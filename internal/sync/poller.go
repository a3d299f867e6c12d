package sync

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notify"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/state"
)

// SyncState represents the current state of the poller.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the outcome of the latest cycle.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    atlassian.ErrorType
}

// CycleResultMsg is a tea.Msg sent when a fetch cycle completes.
type CycleResultMsg struct {
	State       state.View
	NewCount    int
	GlobalError atlassian.ErrorType
	AuthErrors  []model.Account
}

// DefaultInterval is the time between fetch cycles.
const DefaultInterval = 60 * time.Second

// fetchTimeout is the maximum time allowed for a single cycle.
const fetchTimeout = 30 * time.Second

// AccountsFunc returns the accounts to fetch. It is called every cycle so
// logins and logouts take effect without restarting the poller.
type AccountsFunc func() []model.Account

// Poller fetches all accounts on an interval and feeds the results into
// the state container.
type Poller struct {
	fetcher   Fetcher
	container *state.Container
	bridge    notify.Bridge
	accounts  AccountsFunc
	pageSize  int

	resultCh   chan CycleResultMsg
	triggerCh  chan struct{}
	intervalCh chan time.Duration
	stopCh     chan struct{}

	mu       gosync.Mutex
	running  bool
	interval time.Duration
	status   SyncStatus

	inFlight atomic.Bool
	skipped  atomic.Int64
}

// New creates a Poller. A nil bridge logs instead of notifying.
func New(
	f Fetcher,
	c *state.Container,
	bridge notify.Bridge,
	accounts AccountsFunc,
	interval time.Duration,
	pageSize int,
) *Poller {
	if bridge == nil {
		bridge = notify.NewLogBridge(nil)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:    f,
		container:  c,
		bridge:     bridge,
		accounts:   accounts,
		pageSize:   pageSize,
		resultCh:   make(chan CycleResultMsg, 16),
		triggerCh:  make(chan struct{}, 1),
		intervalCh: make(chan time.Duration, 1),
		stopCh:     make(chan struct{}),
		interval:   interval,
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that
// delivers the first CycleResultMsg to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	interval := p.interval
	p.mu.Unlock()

	go p.loop(interval)

	return p.waitForResult()
}

// Stop halts the polling goroutine. An in-flight cycle runs to completion.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate cycle.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

// SetInterval changes the time between cycles, e.g. after a config reload.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()

	select {
	case p.intervalCh <- d:
	default:
		// Replace the pending, not yet applied value.
		select {
		case <-p.intervalCh:
		default:
		}
		select {
		case p.intervalCh <- d:
		default:
		}
	}
}

// Interval returns the current time between cycles.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Status returns the outcome of the latest cycle.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Skipped returns how many cycles were skipped because the previous one
// was still running.
func (p *Poller) Skipped() int64 {
	return p.skipped.Load()
}

// Results exposes the result channel for headless consumers.
func (p *Poller) Results() <-chan CycleResultMsg {
	return p.resultCh
}

// RunOnce runs a single cycle synchronously. It reports false without
// fetching when another cycle is in flight.
func (p *Poller) RunOnce(ctx context.Context) (CycleResultMsg, bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		logging.Logger().Debug("fetch cycle skipped, previous cycle still running")
		return CycleResultMsg{}, false
	}
	defer p.inFlight.Store(false)

	p.setStatus(SyncRunning, "")

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	settings := p.container.Settings()
	accounts := p.accounts()

	p.container.BeginFetch()
	results := FetchAll(ctx, p.fetcher, accounts, settings, p.pageSize)

	msg := CycleResultMsg{AuthErrors: AuthFailures(results)}

	if errType := GlobalError(results); errType != "" {
		p.container.Fail(errType)
		msg.GlobalError = errType
		p.setStatus(SyncError, errType)
		logging.Logger().WithField("error_type", errType).Warn("all accounts failed")
	} else {
		newOnes := p.container.ReplaceAll(results)
		msg.NewCount = len(newOnes)
		notify.Dispatch(p.bridge, newOnes, p.container.UnreadCount(), settings)
		p.setStatus(SyncIdle, "")
	}

	msg.State = p.container.Snapshot()

	logging.Logger().WithFields(logrus.Fields{
		"accounts": len(accounts),
		"new":      msg.NewCount,
		"unread":   msg.State.UnreadCount,
	}).Info("fetch cycle complete")

	return msg, true
}

// loop runs the ticker. The first cycle starts immediately.
func (p *Poller) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tick()
		case <-p.triggerCh:
			p.tick()
		case d := <-p.intervalCh:
			ticker.Reset(d)
		}
	}
}

// tick starts a cycle in the background so a slow cycle does not hold up
// the ticker; overlapping ticks are skipped by RunOnce.
func (p *Poller) tick() {
	go func() {
		msg, ran := p.RunOnce(context.Background())
		if ran {
			p.sendResult(msg)
		}
	}()
}

func (p *Poller) setStatus(s SyncState, errType atlassian.ErrorType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = s
	p.status.Error = errType
	if s == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a CycleResultMsg without blocking.
func (p *Poller) sendResult(msg CycleResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next cycle
// result. Call it after handling a CycleResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
