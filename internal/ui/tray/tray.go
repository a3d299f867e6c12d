// Package tray keeps the terminal's stand-in for the desktop tray: the
// header indicator and the last raised notification.
package tray

import (
	"io"
	"sync"
	"time"

	"github.com/nhle/atlassify/internal/notify"
)

// Alert is the most recent native notification.
type Alert struct {
	Title string
	Body  string
	URL   string
	At    time.Time
}

// Status is a point-in-time copy of the tray.
type Status struct {
	Title string
	// UnreadCount is the count the tray colour was last computed from.
	UnreadCount int
	Alert       *Alert
	Sounds      int
}

// Active reports whether the tray should use its unread colour.
func (s Status) Active() bool {
	return s.UnreadCount > 0
}

// Bridge implements notify.Bridge for the TUI. Calls arrive from the
// poller goroutine, reads from the Bubble Tea loop.
type Bridge struct {
	mu     sync.Mutex
	status Status
	bell   io.Writer
	next   notify.Bridge
	now    func() time.Time
}

// New returns a Bridge. Sounds ring the terminal bell on bell when it is
// non-nil, and every call is forwarded to next when it is non-nil.
func New(bell io.Writer, next notify.Bridge) *Bridge {
	return &Bridge{bell: bell, next: next, now: time.Now}
}

func (b *Bridge) RaiseNativeNotification(title, body string, url *string) {
	a := &Alert{Title: title, Body: body, At: b.now()}
	if url != nil {
		a.URL = *url
	}

	b.mu.Lock()
	b.status.Alert = a
	b.mu.Unlock()

	if b.next != nil {
		b.next.RaiseNativeNotification(title, body, url)
	}
}

func (b *Bridge) UpdateTrayColor(unreadCount int) {
	b.mu.Lock()
	b.status.UnreadCount = unreadCount
	b.mu.Unlock()

	if b.next != nil {
		b.next.UpdateTrayColor(unreadCount)
	}
}

func (b *Bridge) UpdateTrayTitle(text string) {
	b.mu.Lock()
	b.status.Title = text
	b.mu.Unlock()

	if b.next != nil {
		b.next.UpdateTrayTitle(text)
	}
}

func (b *Bridge) PlaySound(volume int) {
	b.mu.Lock()
	b.status.Sounds++
	b.mu.Unlock()

	if b.bell != nil && volume > 0 {
		_, _ = io.WriteString(b.bell, "\a")
	}
	if b.next != nil {
		b.next.PlaySound(volume)
	}
}

// Status returns a copy of the tray state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.status
	if s.Alert != nil {
		a := *s.Alert
		s.Alert = &a
	}
	return s
}

// DismissAlert clears the last notification.
func (b *Bridge) DismissAlert() {
	b.mu.Lock()
	b.status.Alert = nil
	b.mu.Unlock()
}
