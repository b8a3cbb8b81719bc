// Package notifier provides desktop notifications for build outcomes
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/appbuilder/appbuilder/pkg/interfaces"
	"github.com/appbuilder/appbuilder/pkg/logger"
)

// SendFunc delivers a single notification
type SendFunc func(title, message string) error

// BuildNotifier handles build notifications
type BuildNotifier struct {
	enabled   bool
	beepOnErr bool
	send      SendFunc
	beep      func() error
	logger    logger.Logger
}

var _ interfaces.BuildNotifier = (*BuildNotifier)(nil)

// Config represents notification configuration
type Config struct {
	Enabled bool
	// BeepOnFailure plays the system bell when a build fails
	BeepOnFailure bool
}

// New creates a new build notifier backed by beeep
func New(config Config, log logger.Logger) *BuildNotifier {
	if log == nil {
		log = logger.Discard()
	}
	return &BuildNotifier{
		enabled:   config.Enabled,
		beepOnErr: config.BeepOnFailure,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
		logger: log,
	}
}

// WithSender replaces the delivery function (for tests and headless hosts)
func (n *BuildNotifier) WithSender(send SendFunc) *BuildNotifier {
	n.send = send
	n.beep = func() error { return nil }
	return n
}

// NotifyBuildStart notifies that a build has started
func (n *BuildNotifier) NotifyBuildStart(name string) {
	if !n.enabled {
		return
	}
	n.sendNotification("📦 appbuilder", fmt.Sprintf("Building %s...", name))
}

// NotifyBuildSuccess notifies that a build succeeded
func (n *BuildNotifier) NotifyBuildSuccess(name string, duration time.Duration) {
	if !n.enabled {
		return
	}
	n.sendNotification("✅ Build Succeeded", fmt.Sprintf("%s built in %s", name, formatDuration(duration)))
}

// NotifyBuildFailure notifies that a build failed
func (n *BuildNotifier) NotifyBuildFailure(name string, err error) {
	if !n.enabled {
		return
	}
	n.sendNotification("❌ Build Failed", fmt.Sprintf("%s: %v", name, err))
	if n.beepOnErr {
		if err := n.beep(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func (n *BuildNotifier) sendNotification(title, message string) {
	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
