package models

import "time"

// Tenant is a logical owner of rooms and resources. Events carry no
// tenant field; ownership is recovered from the scoped room name prefix.
type Tenant struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
}
