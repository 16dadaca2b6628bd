package db

import (
	"fmt"

	"github.com/greenroomhq/greenroom/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.WebhookEvent{},
		&models.Session{},
		&models.ParticipantRecord{},
		&models.Agent{},
		&models.AgentInstance{},
		&models.AgentRoomMembership{},
		&models.AnalyticsSnapshot{},
		&models.EgressResource{},
		&models.IngressResource{},
		&models.Tenant{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
