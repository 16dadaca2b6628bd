// Package sync is the pull-based reconciliation path. List-reads trigger
// it before serving, so rows that a lost or early webhook left stale get
// patched from the platform's live listing. It shares upsert keys with
// the event reconcilers and is safe to run concurrently with them; it is
// a fallback, never the authority.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/platform"
	"github.com/greenroomhq/greenroom/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTimeout = 8 * time.Second

// Syncer patches local resource rows from the platform's live listings.
type Syncer struct {
	db      *gorm.DB
	client  platform.Client
	timeout time.Duration
}

// Opts holds parameters for creating a Syncer.
type Opts struct {
	DB     *gorm.DB
	Client platform.Client
	// Timeout bounds each listing call; defaults to 8s. Timeouts are
	// soft failures — callers serve last-known local rows.
	Timeout time.Duration
}

// New creates a Syncer.
func New(opts Opts) (*Syncer, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("sync: db is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("sync: platform client is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Syncer{db: opts.DB, client: opts.Client, timeout: timeout}, nil
}

// SyncEgress upserts local egress rows from the live listing and marks
// active rows the platform no longer reports as inactive. Fields the
// listing does not carry, like an already-recorded output URL, are left
// alone.
func (s *Syncer) SyncEgress(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	live, err := s.client.ListEgress(ctx)
	if err != nil {
		return fmt.Errorf("sync: list egress: %w", err)
	}

	liveIDs := make([]string, 0, len(live))
	for _, info := range live {
		liveIDs = append(liveIDs, info.EgressID)

		updates := map[string]interface{}{
			"room_name": info.RoomName,
			"status":    info.Status,
			"is_active": info.Active,
			"tenant_id": scope.TenantIDPtr(info.RoomName),
		}
		if info.OutputType != "" {
			updates["type"] = info.OutputType
		}
		if info.OutputURL != "" {
			updates["output_url"] = info.OutputURL
		}

		row := models.EgressResource{
			ID:        info.EgressID,
			RoomName:  info.RoomName,
			Type:      info.OutputType,
			Status:    info.Status,
			OutputURL: info.OutputURL,
			IsActive:  info.Active,
			TenantID:  scope.TenantIDPtr(info.RoomName),
		}
		result := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
		}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("sync: upsert egress %s: %w", info.EgressID, result.Error)
		}
	}

	return s.deactivateMissing(&models.EgressResource{}, liveIDs)
}

// SyncIngress upserts local ingress rows from the live listing. This is
// the only path that ever deactivates an ingress: events always mark
// them active.
func (s *Syncer) SyncIngress(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	live, err := s.client.ListIngress(ctx)
	if err != nil {
		return fmt.Errorf("sync: list ingress: %w", err)
	}

	liveIDs := make([]string, 0, len(live))
	for _, info := range live {
		liveIDs = append(liveIDs, info.IngressID)

		updates := map[string]interface{}{
			"name":      info.Name,
			"room_name": info.RoomName,
			"is_active": info.Active,
			"tenant_id": scope.TenantIDPtr(info.RoomName),
		}
		if info.InputType != "" {
			updates["input_type"] = info.InputType
		}
		if info.URL != "" {
			updates["url"] = info.URL
		}
		if info.StreamKey != "" {
			updates["stream_key"] = info.StreamKey
		}

		row := models.IngressResource{
			ID:        info.IngressID,
			Name:      info.Name,
			RoomName:  info.RoomName,
			InputType: info.InputType,
			URL:       info.URL,
			StreamKey: info.StreamKey,
			IsActive:  info.Active,
			TenantID:  scope.TenantIDPtr(info.RoomName),
		}
		result := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
		}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("sync: upsert ingress %s: %w", info.IngressID, result.Error)
		}
	}

	return s.deactivateMissing(&models.IngressResource{}, liveIDs)
}

// deactivateMissing flips is_active off for rows the live listing no
// longer includes.
func (s *Syncer) deactivateMissing(model interface{}, liveIDs []string) error {
	q := s.db.Model(model).Where("is_active = ?", true)
	if len(liveIDs) > 0 {
		q = q.Where("id NOT IN ?", liveIDs)
	}
	if err := q.Update("is_active", false).Error; err != nil {
		return fmt.Errorf("sync: deactivate missing: %w", err)
	}
	return nil
}
