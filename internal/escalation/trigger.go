// Package escalation detects the out-of-scope sentinel in generated
// responses and hands the conversation off to a human. It is a boolean
// detector: it trusts the upstream model's decision to emit the sentinel
// and performs no scope judgment of its own.
package escalation

import (
	"context"
	"strings"
	"time"

	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/common/metrics"
	"hospital-assistant/internal/session"
)

// Sentinel marks a generated response as out of scope.
const Sentinel = "FORWARD_TO_HUMAN:"

// DefaultNotifyTimeout bounds the async handoff call.
const DefaultNotifyTimeout = 10 * time.Second

// Trigger strips the sentinel, notifies the handoff collaborator once, and
// ends the user's session.
type Trigger struct {
	notifier      Notifier
	sessions      session.Store
	notifyTimeout time.Duration
	log           logger.Logger
}

func NewTrigger(notifier Notifier, sessions session.Store, notifyTimeout time.Duration, log logger.Logger) *Trigger {
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	return &Trigger{
		notifier:      notifier,
		sessions:      sessions,
		notifyTimeout: notifyTimeout,
		log:           log,
	}
}

// Detected reports whether responseText carries the sentinel.
func Detected(responseText string) bool {
	return strings.Contains(responseText, Sentinel)
}

// Strip removes every sentinel occurrence and trims the result.
func Strip(responseText string) string {
	return strings.TrimSpace(strings.ReplaceAll(responseText, Sentinel, ""))
}

// Process inspects responseText and returns the text to show the user. When
// the sentinel is present it fires the handoff notification asynchronously,
// clears the user's session, and returns the stripped text. Notification
// failure is logged only; the session stays cleared regardless because the
// conversation is over either way.
func (t *Trigger) Process(ctx context.Context, userID, userQuery, responseText string) string {
	if !Detected(responseText) {
		return responseText
	}

	t.log.Info("out-of-scope response detected, forwarding to human agent", map[string]interface{}{
		"user_id": userID,
	})

	go t.notify(userID, userQuery)

	if err := t.sessions.Clear(ctx, userID); err != nil {
		t.log.WithError(err).Error("failed to clear session after escalation", map[string]interface{}{
			"user_id": userID,
		})
	}

	return Strip(responseText)
}

func (t *Trigger) notify(userID, userQuery string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.notifyTimeout)
	defer cancel()

	if err := t.notifier.Notify(ctx, userID, userQuery); err != nil {
		metrics.EscalationsTotal.WithLabelValues("notify_failed").Inc()
		t.log.WithError(err).Error("human agent notification failed", map[string]interface{}{
			"user_id": userID,
		})
		return
	}
	metrics.EscalationsTotal.WithLabelValues("notified").Inc()
}
