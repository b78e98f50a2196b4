package notifier

import (
	"context"
	"errors"
	"fmt"

	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/metrics"
)

// Dispatcher delivers one notification. A nil error means delivery succeeded.
type Dispatcher interface {
	Dispatch(ctx context.Context, n dto.Notification) error
}

// Channel is a named Dispatcher that can be fanned out to.
type Channel interface {
	Dispatcher
	Name() string
}

// auditChannel marks a channel that records notifications without delivering
// them to anyone. Its success never counts as delivery.
type auditChannel interface {
	audit() bool
}

// LogDispatcher writes notifications to the structured log. It never fails.
type LogDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Name() string { return "log" }

func (d *LogDispatcher) audit() bool { return true }

func (d *LogDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	d.log.InfoContext(ctx, "Notification",
		logger.StringField("title", n.Title),
		logger.StringField("importance", n.Importance),
		logger.StringField("message", n.Message),
		logger.Field("data", n.Data),
	)
	return nil
}

// MultiDispatcher fans a notification out to every channel in order.
// Delivery counts as successful when at least one transport succeeds. Audit
// channels such as LogDispatcher only decide the outcome when no transport is
// configured.
type MultiDispatcher struct {
	channels []Channel
	log      *logger.Logger
}

// NewMultiDispatcher creates a MultiDispatcher over the given channels.
func NewMultiDispatcher(log *logger.Logger, channels ...Channel) *MultiDispatcher {
	return &MultiDispatcher{channels: channels, log: log}
}

// Channels lists the names of the configured channels.
func (m *MultiDispatcher) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name())
	}
	return names
}

func (m *MultiDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	if len(m.channels) == 0 {
		return nil
	}

	var errs []error
	delivered, transports, audited := 0, 0, 0
	for _, c := range m.channels {
		isAudit := isAuditChannel(c)
		if !isAudit {
			transports++
		}
		if err := c.Dispatch(ctx, n); err != nil {
			metrics.Notifications.WithLabelValues(c.Name(), "error").Inc()
			m.log.WarnContext(ctx, "Notification channel failed",
				logger.StringField("channel", c.Name()),
				logger.ErrorField(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		metrics.Notifications.WithLabelValues(c.Name(), "success").Inc()
		if isAudit {
			audited++
			continue
		}
		delivered++
	}

	if transports == 0 && audited > 0 {
		return nil
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

func isAuditChannel(c Channel) bool {
	a, ok := c.(auditChannel)
	return ok && a.audit()
}
