package reconcile

import (
	"fmt"

	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/scope"
	"gorm.io/gorm/clause"
)

// RoomStarted upserts a session row keyed by the room instance id. A
// redelivered start resets the row to active and refreshes the start
// time, so replays are harmless.
func (r *Reconciler) RoomStarted(evt *event.Event) error {
	if evt.Room == nil || evt.Room.Name == "" {
		return fmt.Errorf("reconcile: room_started: room name is required")
	}
	if evt.Room.SID == "" {
		return fmt.Errorf("reconcile: room_started: room sid is required")
	}

	session := models.Session{
		SID:       evt.Room.SID,
		RoomName:  evt.Room.Name,
		Status:    models.SessionActive,
		StartTime: r.now(),
		TenantID:  scope.TenantIDPtr(evt.Room.Name),
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sid"}},
		DoUpdates: clause.AssignmentColumns([]string{"room_name", "status", "start_time", "end_time", "tenant_id"}),
	}).Create(&session)
	if result.Error != nil {
		return fmt.Errorf("reconcile: room_started %s: %w", evt.Room.SID, result.Error)
	}
	return nil
}

// RoomFinished closes the active session for a room name. Stop events may
// arrive without the instance id, so the match is by name and status; no
// matching row is a no-op since duplicate and out-of-order stops are
// expected.
func (r *Reconciler) RoomFinished(evt *event.Event) error {
	if evt.Room == nil || evt.Room.Name == "" {
		return fmt.Errorf("reconcile: room_finished: room name is required")
	}

	end := r.now()
	result := r.db.Model(&models.Session{}).
		Where("room_name = ? AND status = ?", evt.Room.Name, models.SessionActive).
		Updates(map[string]interface{}{
			"status":              models.SessionFinished,
			"end_time":            end,
			"active_participants": 0,
		})
	if result.Error != nil {
		return fmt.Errorf("reconcile: room_finished %s: %w", evt.Room.Name, result.Error)
	}
	return nil
}
