package admin

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/scope"
)

var errSessionNotFound = errors.New("admin: session not found")

// SessionRow is the read-API shape of a session. Room names are served
// unscoped; the tenant prefix is an internal routing detail.
type SessionRow struct {
	SID                string     `json:"sid"`
	RoomName           string     `json:"room_name"`
	Status             string     `json:"status"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	TotalParticipants  int        `json:"total_participants"`
	ActiveParticipants int        `json:"active_participants"`
}

// ParticipantRow is the read-API shape of one participant record.
type ParticipantRow struct {
	Identity string     `json:"identity"`
	Status   string     `json:"status"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
	Platform string     `json:"platform,omitempty"`
	Browser  string     `json:"browser,omitempty"`
	IsAgent  bool       `json:"is_agent"`
}

// EgressRow is the read-API shape of an egress resource.
type EgressRow struct {
	ID        string    `json:"id"`
	RoomName  string    `json:"room_name"`
	Type      string    `json:"type,omitempty"`
	Status    string    `json:"status,omitempty"`
	OutputURL string    `json:"output_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IngressRow is the read-API shape of an ingress resource. Stream keys
// are credentials and never leave the database through this API.
type IngressRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	RoomName  string    `json:"room_name"`
	InputType string    `json:"input_type,omitempty"`
	URL       string    `json:"url,omitempty"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

func listSessions(db *gorm.DB, tenant string) ([]SessionRow, error) {
	var sessions []models.Session
	err := db.Where("tenant_id = ?", tenant).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("admin: list sessions: %w", err)
	}
	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionRow{
			SID:                s.SID,
			RoomName:           scope.Unscope(s.RoomName, tenant),
			Status:             s.Status,
			StartTime:          s.StartTime,
			EndTime:            s.EndTime,
			TotalParticipants:  s.TotalParticipants,
			ActiveParticipants: s.ActiveParticipants,
		})
	}
	return rows, nil
}

func listParticipants(db *gorm.DB, tenant, sid string) ([]ParticipantRow, error) {
	// Scope the session lookup to the tenant so one tenant cannot read
	// another's roster by guessing a sid.
	var count int64
	err := db.Model(&models.Session{}).
		Where("sid = ? AND tenant_id = ?", sid, tenant).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("admin: session lookup: %w", err)
	}
	if count == 0 {
		return nil, errSessionNotFound
	}

	var records []models.ParticipantRecord
	err = db.Where("session_id = ?", sid).
		Order("joined_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("admin: list participants: %w", err)
	}
	rows := make([]ParticipantRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ParticipantRow{
			Identity: r.Identity,
			Status:   r.Status,
			JoinedAt: r.JoinedAt,
			LeftAt:   r.LeftAt,
			Platform: r.Platform,
			Browser:  r.Browser,
			IsAgent:  scope.IsAgentIdentity(r.Identity),
		})
	}
	return rows, nil
}

func listEgress(db *gorm.DB, tenant string) ([]EgressRow, error) {
	var resources []models.EgressResource
	err := db.Where("tenant_id = ?", tenant).
		Order("updated_at DESC").
		Find(&resources).Error
	if err != nil {
		return nil, fmt.Errorf("admin: list egress: %w", err)
	}
	rows := make([]EgressRow, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, EgressRow{
			ID:        r.ID,
			RoomName:  scope.Unscope(r.RoomName, tenant),
			Type:      r.Type,
			Status:    r.Status,
			OutputURL: r.OutputURL,
			IsActive:  r.IsActive,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return rows, nil
}

func listIngress(db *gorm.DB, tenant string) ([]IngressRow, error) {
	var resources []models.IngressResource
	err := db.Where("tenant_id = ?", tenant).
		Order("updated_at DESC").
		Find(&resources).Error
	if err != nil {
		return nil, fmt.Errorf("admin: list ingress: %w", err)
	}
	rows := make([]IngressRow, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, IngressRow{
			ID:        r.ID,
			Name:      r.Name,
			RoomName:  scope.Unscope(r.RoomName, tenant),
			InputType: r.InputType,
			URL:       r.URL,
			IsActive:  r.IsActive,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return rows, nil
}
