package notify

import (
	"github.com/sirupsen/logrus"

	"github.com/nhle/atlassify/internal/logging"
)

// LogBridge implements Bridge by logging, for headless runs.
type LogBridge struct {
	log *logrus.Logger
}

// NewLogBridge returns a bridge that writes to l, or to the shared logger
// when l is nil.
func NewLogBridge(l *logrus.Logger) *LogBridge {
	return &LogBridge{log: l}
}

func (b *LogBridge) logger() *logrus.Logger {
	if b.log != nil {
		return b.log
	}
	return logging.Logger()
}

func (b *LogBridge) RaiseNativeNotification(title, body string, url *string) {
	fields := logrus.Fields{"title": title, "body": body}
	if url != nil {
		fields["url"] = *url
	}
	b.logger().WithFields(fields).Info("notification")
}

func (b *LogBridge) UpdateTrayColor(unreadCount int) {
	b.logger().WithField("unread", unreadCount).Debug("tray color")
}

func (b *LogBridge) UpdateTrayTitle(text string) {
	b.logger().WithField("title", text).Debug("tray title")
}

func (b *LogBridge) PlaySound(volume int) {
	b.logger().WithField("volume", volume).Debug("sound")
}
