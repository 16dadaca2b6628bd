package models

import "time"

// AnalyticsSnapshot is an append-only ledger row. Each new row carries
// the previous row's participant total plus a signed delta, clamped at
// zero, alongside a live count of active rooms.
type AnalyticsSnapshot struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp         time.Time `gorm:"index"`
	ActiveRooms       int
	TotalParticipants int
}
