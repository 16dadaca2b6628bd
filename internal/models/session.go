package models

import "time"

// Session status values.
const (
	SessionActive   = "active"
	SessionFinished = "finished"
)

// Session is one room lifetime, keyed by the platform-assigned room
// instance id. A room name that starts again after finishing gets a new
// row with a new SID; finished sessions are never reopened.
type Session struct {
	SID                string `gorm:"column:sid;primaryKey;size:64"`
	RoomName           string `gorm:"size:255;index"`
	Status             string `gorm:"size:16;default:active;index"`
	StartTime          time.Time
	EndTime            *time.Time
	TotalParticipants  int
	ActiveParticipants int
	TenantID           *string `gorm:"size:64;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Participant record status values.
const (
	ParticipantActive = "active"
	ParticipantLeft   = "left"
)

// ParticipantRecord is one join. A rejoin produces a new row; at most one
// row per (session, identity) is active at a time.
type ParticipantRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:64;index"`
	Identity  string `gorm:"size:255"`
	Status    string `gorm:"size:16;default:active;index"`
	JoinedAt  time.Time
	LeftAt    *time.Time
	Platform  string  `gorm:"size:64"`
	Browser   string  `gorm:"size:64"`
	TenantID  *string `gorm:"size:64;index"`
}
