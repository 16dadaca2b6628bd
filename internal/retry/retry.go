// Package retry redelivers stored events whose reconciliation failed.
// The webhook endpoint never asks the sender to retry, so this sweep is
// the only automatic recovery path; events that exhaust their attempts
// are escalated to the operator channel.
package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/greenroomhq/greenroom/internal/alert"
	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/webhook"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 5
	// inflightGrace keeps the sweep away from rows a live request may
	// still be processing.
	inflightGrace = time.Minute
	sweepBatch    = 100
)

// cronParser uses standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Driver sweeps unprocessed events on a cron schedule.
type Driver struct {
	db          *gorm.DB
	router      *webhook.Router
	schedule    cron.Schedule
	maxAttempts int
	notifier    alert.Notifier
	now         func() time.Time
}

// Opts holds parameters for creating a Driver.
type Opts struct {
	DB     *gorm.DB
	Router *webhook.Router
	// Schedule is a 5-field cron expression; defaults to every 5 minutes.
	Schedule    string
	MaxAttempts int
	// Notifier receives escalations for exhausted events; nil disables them.
	Notifier alert.Notifier
	// Now overrides the clock for tests.
	Now func() time.Time
}

// New creates a Driver.
func New(opts Opts) (*Driver, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("retry: db is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("retry: router is required")
	}
	expr := opts.Schedule
	if expr == "" {
		expr = "*/5 * * * *"
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("retry: parse schedule %q: %w", expr, err)
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		db:          opts.DB,
		router:      opts.Router,
		schedule:    sched,
		maxAttempts: maxAttempts,
		notifier:    opts.Notifier,
		now:         now,
	}, nil
}

// Run sweeps on the configured schedule until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	for {
		next := d.schedule.Next(d.now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if err := d.Sweep(ctx); err != nil {
			log.Printf("retry: sweep: %v", err)
		}
	}
}

// Sweep replays unprocessed events below the attempt cap. Rows with zero
// attempts are included only once they are old enough to rule out an
// in-flight request.
func (d *Driver) Sweep(ctx context.Context) error {
	cutoff := d.now().Add(-inflightGrace)
	var rows []models.WebhookEvent
	err := d.db.WithContext(ctx).
		Where("processed = ? AND delivery_attempts < ? AND (delivery_attempts > 0 OR created_at < ?)",
			false, d.maxAttempts, cutoff).
		Order("created_at ASC").
		Limit(sweepBatch).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("retry: load candidates: %w", err)
	}

	for _, row := range rows {
		d.replay(ctx, row)
	}
	return nil
}

// replay routes one stored event again and records the outcome.
func (d *Driver) replay(ctx context.Context, row models.WebhookEvent) {
	var evt event.Event
	if err := json.Unmarshal([]byte(row.Payload), &evt); err != nil {
		webhook.MarkFailed(d.db, row.ID, fmt.Errorf("retry: decode payload: %w", err))
		d.escalate(ctx, row, err)
		return
	}

	if err := d.router.Route(&evt); err != nil {
		log.Printf("retry: replay %s (%s) attempt %d: %v", row.EventType, row.ID, row.DeliveryAttempts+1, err)
		webhook.MarkFailed(d.db, row.ID, err)
		d.escalate(ctx, row, err)
		return
	}
	webhook.MarkProcessed(d.db, row.ID)
}

// escalate alerts the operator channel when an event has exhausted its
// attempts.
func (d *Driver) escalate(ctx context.Context, row models.WebhookEvent, cause error) {
	if d.notifier == nil || row.DeliveryAttempts+1 < d.maxAttempts {
		return
	}
	a := alert.Alert{
		Title:    "webhook event exhausted retries",
		Body:     cause.Error(),
		Severity: alert.SeverityError,
		Fields: map[string]string{
			"event_id":   row.ID,
			"event_type": row.EventType,
			"attempts":   fmt.Sprintf("%d", row.DeliveryAttempts+1),
		},
	}
	if err := d.notifier.Notify(ctx, a); err != nil {
		log.Printf("retry: escalate %s: %v", row.ID, err)
	}
}
