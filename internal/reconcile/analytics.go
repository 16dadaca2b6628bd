package reconcile

import (
	"fmt"

	"github.com/greenroomhq/greenroom/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotDelta appends an analytics snapshot row carrying the previous
// total plus delta (+1 join, -1 leave), clamped at zero, and a live count
// of active rooms. The read and the append run in one transaction with
// the latest row locked, so two concurrent deltas cannot both build on
// the same base.
func (r *Reconciler) SnapshotDelta(delta int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		latest := tx.Order("timestamp DESC").Limit(1)
		if tx.Dialector.Name() == "mysql" {
			latest = latest.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var prior []models.AnalyticsSnapshot
		if err := latest.Find(&prior).Error; err != nil {
			return fmt.Errorf("read latest snapshot: %w", err)
		}

		total := delta
		if len(prior) > 0 {
			total = prior[0].TotalParticipants + delta
		}
		if total < 0 {
			total = 0
		}

		var activeRooms int64
		if err := tx.Model(&models.Session{}).
			Where("status = ?", models.SessionActive).
			Distinct("room_name").
			Count(&activeRooms).Error; err != nil {
			return fmt.Errorf("count active rooms: %w", err)
		}

		snapshot := models.AnalyticsSnapshot{
			Timestamp:         r.now(),
			ActiveRooms:       int(activeRooms),
			TotalParticipants: total,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return fmt.Errorf("append snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile: snapshot delta %+d: %w", delta, err)
	}
	return nil
}
