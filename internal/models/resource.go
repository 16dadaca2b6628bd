package models

import "time"

// EgressResource is a recording or stream export tracked per egress id.
// Rows are upserted on start events and by the pull sync, so both paths
// share the primary key.
type EgressResource struct {
	ID        string `gorm:"primaryKey;size:64"`
	RoomName  string `gorm:"size:255;index"`
	Type      string `gorm:"size:32"`
	Status    string `gorm:"size:32"`
	OutputURL string `gorm:"size:1024"`
	IsActive  bool   `gorm:"index"`
	TenantID  *string `gorm:"size:64;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngressResource is a media ingestion endpoint tracked per ingress id.
// Events only ever mark it active; deactivation is observed through the
// pull sync when the platform's live listing no longer reports it.
type IngressResource struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255"`
	RoomName  string `gorm:"size:255;index"`
	InputType string `gorm:"size:32"`
	URL       string `gorm:"size:1024"`
	StreamKey string `gorm:"size:255"`
	IsActive  bool   `gorm:"index"`
	TenantID  *string `gorm:"size:64;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
