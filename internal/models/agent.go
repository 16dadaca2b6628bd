package models

import "time"

// Agent is a server-side participant (bot) registered with the control
// plane, identified in events by its external id appearing as the
// participant identity.
type Agent struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ExternalID string `gorm:"size:128;uniqueIndex"`
	Name       string `gorm:"size:255"`
	CreatedAt  time.Time
}

// AgentInstance is a deployed copy of an agent. Join events may carry the
// instance's external id as a participant attribute.
type AgentInstance struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	AgentID    uint   `gorm:"index"`
	ExternalID string `gorm:"size:128;uniqueIndex"`
	CreatedAt  time.Time
}

// AgentRoomMembership tracks an agent's presence in a room, opened on the
// agent's join event and closed by the matching leave.
type AgentRoomMembership struct {
	ID         uint  `gorm:"primaryKey;autoIncrement"`
	AgentID    uint  `gorm:"index"`
	InstanceID *uint `gorm:"index"`
	RoomName   string `gorm:"size:255;index"`
	JoinedAt   time.Time
	LeftAt     *time.Time
}
