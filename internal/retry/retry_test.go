package retry

import (
	"context"
	"testing"
	"time"

	"github.com/greenroomhq/greenroom/internal/alert"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/reconcile"
	"github.com/greenroomhq/greenroom/internal/webhook"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// spyNotifier records escalations.
type spyNotifier struct {
	alerts []alert.Alert
}

func (s *spyNotifier) Notify(_ context.Context, a alert.Alert) error {
	s.alerts = append(s.alerts, a)
	return nil
}

func newTestDriver(t *testing.T, maxAttempts int, notifier alert.Notifier) (*Driver, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.WebhookEvent{},
		&models.Session{},
		&models.ParticipantRecord{},
		&models.Agent{},
		&models.AgentInstance{},
		&models.AgentRoomMembership{},
		&models.AnalyticsSnapshot{},
		&models.EgressResource{},
		&models.IngressResource{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	rec, err := reconcile.New(reconcile.Opts{DB: db})
	if err != nil {
		t.Fatal(err)
	}
	router, err := webhook.NewRouter(rec)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(Opts{DB: db, Router: router, MaxAttempts: maxAttempts, Notifier: notifier})
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	return d, db
}

func seedFailedEvent(t *testing.T, db *gorm.DB, id, payload string, attempts int) {
	t.Helper()
	row := models.WebhookEvent{
		ID:               id,
		EventType:        "room_started",
		Payload:          payload,
		Processed:        false,
		DeliveryAttempts: attempts,
		LastError:        "transient store error",
		CreatedAt:        time.Now().Add(-time.Hour),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatal(err)
	}
}

func TestSweep_ReplaysFailedEvent(t *testing.T) {
	d, db := newTestDriver(t, 5, nil)
	seedFailedEvent(t, db, "evt-1", `{"event":"room_started","room":{"name":"prj-abc-standup","sid":"RM_1"}}`, 1)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	var row models.WebhookEvent
	db.First(&row, "id = ?", "evt-1")
	if !row.Processed {
		t.Errorf("processed = false, want true (last_error=%q)", row.LastError)
	}
	if row.DeliveryAttempts != 2 {
		t.Errorf("attempts = %d, want 2", row.DeliveryAttempts)
	}

	var s models.Session
	if err := db.First(&s, "sid = ?", "RM_1").Error; err != nil {
		t.Errorf("session not reconciled on replay: %v", err)
	}
}

func TestSweep_SkipsProcessedAndExhausted(t *testing.T) {
	d, db := newTestDriver(t, 3, nil)
	db.Create(&models.WebhookEvent{ID: "done", EventType: "room_started", Payload: "{}", Processed: true, DeliveryAttempts: 1, CreatedAt: time.Now().Add(-time.Hour)})
	seedFailedEvent(t, db, "dead", `{"event":"room_started","room":{}}`, 3)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	var done, dead models.WebhookEvent
	db.First(&done, "id = ?", "done")
	db.First(&dead, "id = ?", "dead")
	if done.DeliveryAttempts != 1 {
		t.Errorf("processed event re-attempted: attempts = %d", done.DeliveryAttempts)
	}
	if dead.DeliveryAttempts != 3 {
		t.Errorf("exhausted event re-attempted: attempts = %d", dead.DeliveryAttempts)
	}
}

func TestSweep_SkipsFreshZeroAttemptRows(t *testing.T) {
	d, db := newTestDriver(t, 5, nil)
	// A row a live request may still be holding: zero attempts, just created.
	db.Create(&models.WebhookEvent{ID: "inflight", EventType: "room_started",
		Payload: `{"event":"room_started","room":{"name":"prj-abc-standup","sid":"RM_1"}}`,
		CreatedAt: time.Now()})

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.WebhookEvent
	db.First(&row, "id = ?", "inflight")
	if row.DeliveryAttempts != 0 || row.Processed {
		t.Errorf("fresh in-flight row touched: %+v", row)
	}
}

func TestSweep_EscalatesOnExhaustion(t *testing.T) {
	spy := &spyNotifier{}
	d, db := newTestDriver(t, 2, spy)
	// One attempt so far; this sweep's failure is the last allowed one.
	seedFailedEvent(t, db, "evt-1", `{"event":"room_started","room":{"name":"prj-abc-standup"}}`, 1)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.WebhookEvent
	db.First(&row, "id = ?", "evt-1")
	if row.Processed {
		t.Error("event without sid should still fail")
	}
	if row.DeliveryAttempts != 2 {
		t.Errorf("attempts = %d, want 2", row.DeliveryAttempts)
	}
	if len(spy.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(spy.alerts))
	}
	if spy.alerts[0].Fields["event_id"] != "evt-1" {
		t.Errorf("alert fields = %v", spy.alerts[0].Fields)
	}
}

func TestSweep_NoEscalationBelowCap(t *testing.T) {
	spy := &spyNotifier{}
	d, db := newTestDriver(t, 5, spy)
	seedFailedEvent(t, db, "evt-1", `{"event":"room_started","room":{"name":"prj-abc-standup"}}`, 1)

	if err := d.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(spy.alerts) != 0 {
		t.Errorf("alerts = %d, want 0 below the cap", len(spy.alerts))
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{}); err == nil {
		t.Error("expected error for missing db")
	}

	_, db := newTestDriver(t, 5, nil)
	rec, _ := reconcile.New(reconcile.Opts{DB: db})
	router, _ := webhook.NewRouter(rec)
	if _, err := New(Opts{DB: db, Router: router, Schedule: "not a cron"}); err == nil {
		t.Error("expected error for bad schedule")
	}
}
