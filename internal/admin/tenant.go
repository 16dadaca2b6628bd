package admin

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/greenroomhq/greenroom/internal/models"
)

// resolveTenant maps a requested tenant id to its stored row. Unknown ids
// return (nil, nil); credential checks belong to the provisioning layer,
// this boundary only establishes that the tenant exists.
func resolveTenant(db *gorm.DB, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := db.First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("admin: tenant lookup: %w", err)
	}
	return &tenant, nil
}
