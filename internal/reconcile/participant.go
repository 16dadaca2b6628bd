package reconcile

import (
	"errors"
	"fmt"
	"log"

	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/scope"
	"gorm.io/gorm"
)

// ParticipantJoined records a join and bumps the session counters. The
// increment is unconditional: a redelivered join over-counts, which is an
// accepted limitation of the source of truth. Agent identities
// additionally open a room membership.
func (r *Reconciler) ParticipantJoined(evt *event.Event) error {
	if evt.Room == nil || evt.Room.SID == "" {
		return fmt.Errorf("reconcile: participant_joined: room sid is required")
	}
	if evt.Participant == nil || evt.Participant.Identity == "" {
		return fmt.Errorf("reconcile: participant_joined: identity is required")
	}

	p := evt.Participant
	record := models.ParticipantRecord{
		SessionID: evt.Room.SID,
		Identity:  p.Identity,
		Status:    models.ParticipantActive,
		JoinedAt:  r.now(),
		TenantID:  scope.TenantIDPtr(p.Identity),
	}
	if p.Client != nil {
		record.Platform = p.Client.OS
		record.Browser = p.Client.Browser
	}
	if err := r.db.Create(&record).Error; err != nil {
		return fmt.Errorf("reconcile: participant_joined %s: %w", p.Identity, err)
	}

	result := r.db.Model(&models.Session{}).
		Where("sid = ?", evt.Room.SID).
		Updates(map[string]interface{}{
			"total_participants":  gorm.Expr("total_participants + 1"),
			"active_participants": gorm.Expr("active_participants + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("reconcile: participant_joined counters %s: %w", evt.Room.SID, result.Error)
	}

	if scope.IsAgentIdentity(p.Identity) {
		if err := r.openAgentMembership(evt); err != nil {
			return err
		}
	}
	return nil
}

// ParticipantLeft closes the active record for the identity and decrements
// the session's active count, floored at zero to tolerate a leave without
// a matching join.
func (r *Reconciler) ParticipantLeft(evt *event.Event) error {
	if evt.Room == nil || evt.Room.SID == "" {
		return fmt.Errorf("reconcile: participant_left: room sid is required")
	}
	if evt.Participant == nil || evt.Participant.Identity == "" {
		return fmt.Errorf("reconcile: participant_left: identity is required")
	}

	identity := evt.Participant.Identity
	left := r.now()
	result := r.db.Model(&models.ParticipantRecord{}).
		Where("session_id = ? AND identity = ? AND status = ?", evt.Room.SID, identity, models.ParticipantActive).
		Updates(map[string]interface{}{
			"status":  models.ParticipantLeft,
			"left_at": left,
		})
	if result.Error != nil {
		return fmt.Errorf("reconcile: participant_left %s: %w", identity, result.Error)
	}

	result = r.db.Model(&models.Session{}).
		Where("sid = ?", evt.Room.SID).
		Update("active_participants",
			gorm.Expr("CASE WHEN active_participants > 0 THEN active_participants - 1 ELSE 0 END"))
	if result.Error != nil {
		return fmt.Errorf("reconcile: participant_left counters %s: %w", evt.Room.SID, result.Error)
	}

	if scope.IsAgentIdentity(identity) {
		if err := r.closeAgentMembership(evt); err != nil {
			return err
		}
	}
	return nil
}

// openAgentMembership inserts an AgentRoomMembership for a joining agent.
// An unregistered agent id or unknown instance attribute is tolerated.
func (r *Reconciler) openAgentMembership(evt *event.Event) error {
	agent, err := r.findAgent(evt.Participant.Identity)
	if err != nil {
		return err
	}
	if agent == nil {
		log.Printf("reconcile: join for unregistered agent %q ignored", evt.Participant.Identity)
		return nil
	}

	membership := models.AgentRoomMembership{
		AgentID:  agent.ID,
		RoomName: r.roomName(evt),
		JoinedAt: r.now(),
	}
	if instExt := evt.Participant.Attributes[event.AgentInstanceAttr]; instExt != "" {
		var inst models.AgentInstance
		err := r.db.Where("external_id = ?", instExt).First(&inst).Error
		switch {
		case err == nil:
			membership.InstanceID = &inst.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// attribute references an instance we don't know; keep the FK null
		default:
			return fmt.Errorf("reconcile: agent instance %s: %w", instExt, err)
		}
	}

	if err := r.db.Create(&membership).Error; err != nil {
		return fmt.Errorf("reconcile: agent membership %s: %w", evt.Participant.Identity, err)
	}
	return nil
}

// closeAgentMembership sets left_at on the newest open membership for the
// agent in this room.
func (r *Reconciler) closeAgentMembership(evt *event.Event) error {
	agent, err := r.findAgent(evt.Participant.Identity)
	if err != nil || agent == nil {
		return err
	}

	var open models.AgentRoomMembership
	err = r.db.Where("agent_id = ? AND room_name = ? AND left_at IS NULL", agent.ID, r.roomName(evt)).
		Order("joined_at DESC").First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: open membership for agent %d: %w", agent.ID, err)
	}

	if err := r.db.Model(&open).Update("left_at", r.now()).Error; err != nil {
		return fmt.Errorf("reconcile: close membership %d: %w", open.ID, err)
	}
	return nil
}

// findAgent looks up an agent by the bare participant identity. nil, nil
// means no such agent is registered.
func (r *Reconciler) findAgent(identity string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.Where("external_id = ?", scope.BareIdentity(identity)).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile: agent lookup %s: %w", identity, err)
	}
	return &agent, nil
}

// roomName resolves the room name for an event, falling back to the
// session row when the payload carries only the sid.
func (r *Reconciler) roomName(evt *event.Event) string {
	if evt.Room.Name != "" {
		return evt.Room.Name
	}
	var session models.Session
	if err := r.db.Where("sid = ?", evt.Room.SID).First(&session).Error; err != nil {
		return ""
	}
	return session.RoomName
}
