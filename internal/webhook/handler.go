package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/models"
	"gorm.io/gorm"
)

// Handler is the inbound webhook endpoint. Every accepted delivery is
// written to the durability log before any reconciliation runs, and the
// sender always gets a 200 once auth and parsing pass: the platform's
// redelivery policy is not a retry mechanism we depend on, so
// reconciliation failures are recorded, not surfaced.
type Handler struct {
	db       *gorm.DB
	verifier *Verifier
	router   *Router
}

// HandlerOpts holds parameters for creating a Handler.
type HandlerOpts struct {
	DB       *gorm.DB
	Verifier *Verifier
	Router   *Router
}

// NewHandler creates a Handler.
func NewHandler(opts HandlerOpts) (*Handler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("webhook: db is required")
	}
	if opts.Verifier == nil {
		return nil, fmt.Errorf("webhook: verifier is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("webhook: router is required")
	}
	return &Handler{db: opts.DB, verifier: opts.Verifier, router: opts.Router}, nil
}

// Handle is the gin handler for POST /webhook.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(c.Request.Header, body); err != nil {
		log.Printf("webhook: rejected delivery: %v", err)
		c.Status(http.StatusUnauthorized)
		return
	}

	var evt event.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		// The one path that skips durability: an untypeable payload.
		c.Status(http.StatusBadRequest)
		return
	}

	row := models.WebhookEvent{
		ID:        uuid.NewString(),
		EventType: evt.Event,
		Payload:   string(body),
	}
	if err := h.db.Create(&row).Error; err != nil {
		log.Printf("webhook: store event %s: %v", evt.Event, err)
		c.Status(http.StatusOK)
		return
	}

	if err := h.router.Route(&evt); err != nil {
		log.Printf("webhook: reconcile %s (%s): %v", evt.Event, row.ID, err)
		MarkFailed(h.db, row.ID, err)
	} else {
		MarkProcessed(h.db, row.ID)
	}
	c.Status(http.StatusOK)
}

// MarkProcessed records a successful reconciliation on the event row.
func MarkProcessed(db *gorm.DB, id string) {
	err := db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":         true,
			"delivery_attempts": gorm.Expr("delivery_attempts + 1"),
			"last_error":        "",
		}).Error
	if err != nil {
		log.Printf("webhook: mark processed %s: %v", id, err)
	}
}

// MarkFailed bumps the attempt counter and records the failure reason.
func MarkFailed(db *gorm.DB, id string, cause error) {
	err := db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":         false,
			"delivery_attempts": gorm.Expr("delivery_attempts + 1"),
			"last_error":        cause.Error(),
		}).Error
	if err != nil {
		log.Printf("webhook: mark failed %s: %v", id, err)
	}
}
