// Package admin serves the HTTP surface of the control plane: the
// webhook ingestion route plus a small read API used by operator
// tooling. Read routes that cover externally owned media resources
// refresh local state from the platform before answering.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/greenroomhq/greenroom/internal/sync"
	"github.com/greenroomhq/greenroom/internal/webhook"
)

// Server hosts the webhook endpoint and the admin read API.
type Server struct {
	db     *gorm.DB
	hook   *webhook.Handler
	syncer *sync.Syncer
}

// Opts configures a Server.
type Opts struct {
	DB     *gorm.DB
	Hook   *webhook.Handler
	Syncer *sync.Syncer // optional; read routes skip refresh when nil
}

// New builds a Server from its dependencies.
func New(opts Opts) (*Server, error) {
	if opts.DB == nil {
		return nil, errors.New("admin: db is required")
	}
	if opts.Hook == nil {
		return nil, errors.New("admin: webhook handler is required")
	}
	return &Server{db: opts.DB, hook: opts.Hook, syncer: opts.Syncer}, nil
}

// StartOpts controls how the HTTP server runs.
type StartOpts struct {
	Port int
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully with a short drain window.
func (s *Server) Start(ctx context.Context, opts StartOpts) error {
	if opts.Port == 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[admin] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("admin: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin: shutdown: %w", err)
	}
	log.Printf("[admin] stopped")
	return nil
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/webhook", s.hook.Handle)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/sessions", s.handleSessions)
	api.GET("/sessions/:sid/participants", s.handleParticipants)
	api.GET("/egress", s.handleEgress)
	api.GET("/ingress", s.handleIngress)
}

// tenantID resolves the mandatory ?tenant= query parameter against the
// tenants table. It writes the error response itself and returns ok=false
// when the request cannot proceed.
func (s *Server) tenantID(c *gin.Context) (string, bool) {
	id := c.Query("tenant")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant query parameter is required"})
		return "", false
	}
	tenant, err := resolveTenant(s.db, id)
	if err != nil {
		log.Printf("[admin] tenant lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
		return "", false
	}
	if tenant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tenant"})
		return "", false
	}
	return tenant.ID, true
}

func (s *Server) handleSessions(c *gin.Context) {
	tenant, ok := s.tenantID(c)
	if !ok {
		return
	}
	rows, err := listSessions(s.db, tenant)
	if err != nil {
		log.Printf("[admin] list sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

func (s *Server) handleParticipants(c *gin.Context) {
	tenant, ok := s.tenantID(c)
	if !ok {
		return
	}
	rows, err := listParticipants(s.db, tenant, c.Param("sid"))
	if err != nil {
		if errors.Is(err, errSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		log.Printf("[admin] list participants: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": rows})
}

func (s *Server) handleEgress(c *gin.Context) {
	tenant, ok := s.tenantID(c)
	if !ok {
		return
	}
	if s.syncer != nil {
		if err := s.syncer.SyncEgress(c.Request.Context()); err != nil {
			// Serve what we have; the platform may be briefly unreachable.
			log.Printf("[admin] egress refresh failed, serving stale rows: %v", err)
		}
	}
	rows, err := listEgress(s.db, tenant)
	if err != nil {
		log.Printf("[admin] list egress: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"egress": rows})
}

func (s *Server) handleIngress(c *gin.Context) {
	tenant, ok := s.tenantID(c)
	if !ok {
		return
	}
	if s.syncer != nil {
		if err := s.syncer.SyncIngress(c.Request.Context()); err != nil {
			log.Printf("[admin] ingress refresh failed, serving stale rows: %v", err)
		}
	}
	rows, err := listIngress(s.db, tenant)
	if err != nil {
		log.Printf("[admin] list ingress: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingress": rows})
}
