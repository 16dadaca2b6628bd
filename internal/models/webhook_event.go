package models

import "time"

// WebhookEvent is the durability log for inbound platform events. Every
// delivery that passes auth and parses as JSON gets a row before any
// reconciliation runs, and the row is never deleted.
type WebhookEvent struct {
	ID               string `gorm:"primaryKey;size:36"`
	EventType        string `gorm:"size:64;index"`
	Payload          string `gorm:"type:text"`
	Processed        bool   `gorm:"index"`
	DeliveryAttempts int
	LastError        string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
