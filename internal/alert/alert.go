// Package alert notifies operators about events the reconciler could not
// recover on its own, over Slack or Discord.
package alert

import (
	"context"
	"log"
)

// Severity levels for operator alerts.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Alert is one operator notification.
type Alert struct {
	Title    string
	Body     string
	Severity string
	Fields   map[string]string
}

// Notifier delivers an alert to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Fanout delivers to every configured notifier; a failing channel is
// logged and skipped, never fatal for the others.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, a Alert) error {
	for _, n := range f {
		if err := n.Notify(ctx, a); err != nil {
			log.Printf("alert: notify: %v", err)
		}
	}
	return nil
}

// severityColor maps a severity to a sidebar color hint.
func severityColor(severity string) string {
	switch severity {
	case SeverityError:
		return "#d00000"
	case SeverityWarning:
		return "#e8a317"
	default:
		return "#439fe0"
	}
}
