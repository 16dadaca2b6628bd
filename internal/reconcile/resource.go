package reconcile

import (
	"fmt"

	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/scope"
	"gorm.io/gorm/clause"
)

// EgressChanged reconciles egress_* events. Everything except the ended
// event upserts the row active; ended deactivates it and attaches the
// final output location. Tenant ownership is derived from the scoped room
// name and stored on the row so it survives restarts.
func (r *Reconciler) EgressChanged(evt *event.Event) error {
	eg := evt.Egress
	if eg == nil || eg.EgressID == "" {
		return fmt.Errorf("reconcile: egress event without egress id")
	}

	if evt.Event == event.TypeEgressEnded {
		updates := map[string]interface{}{
			"is_active": false,
			"status":    eg.Status,
		}
		if out := eg.OutputLocation(); out != "" {
			updates["output_url"] = out
		}
		result := r.db.Model(&models.EgressResource{}).
			Where("id = ?", eg.EgressID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("reconcile: egress_ended %s: %w", eg.EgressID, result.Error)
		}
		return nil
	}

	resource := models.EgressResource{
		ID:       eg.EgressID,
		RoomName: eg.RoomName,
		Type:     eg.OutputType,
		Status:   eg.Status,
		IsActive: true,
		TenantID: scope.TenantIDPtr(eg.RoomName),
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"room_name", "type", "status", "is_active", "tenant_id"}),
	}).Create(&resource)
	if result.Error != nil {
		return fmt.Errorf("reconcile: egress %s: %w", eg.EgressID, result.Error)
	}
	return nil
}

// IngressChanged reconciles ingress_* events. Any ingress event with an id
// upserts the row active; there is no ingress stop event, deactivation
// only happens through the pull sync.
func (r *Reconciler) IngressChanged(evt *event.Event) error {
	ing := evt.Ingress
	if ing == nil || ing.IngressID == "" {
		return nil
	}

	resource := models.IngressResource{
		ID:        ing.IngressID,
		Name:      ing.Name,
		RoomName:  ing.RoomName,
		InputType: ing.InputType,
		URL:       ing.URL,
		StreamKey: ing.StreamKey,
		IsActive:  true,
		TenantID:  scope.TenantIDPtr(ing.RoomName),
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "room_name", "input_type", "url", "stream_key", "is_active", "tenant_id"}),
	}).Create(&resource)
	if result.Error != nil {
		return fmt.Errorf("reconcile: ingress %s: %w", ing.IngressID, result.Error)
	}
	return nil
}
