package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/greenroomhq/greenroom/internal/admin"
	"github.com/greenroomhq/greenroom/internal/alert"
	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/db"
	"github.com/greenroomhq/greenroom/internal/platform"
	"github.com/greenroomhq/greenroom/internal/reconcile"
	"github.com/greenroomhq/greenroom/internal/retry"
	"github.com/greenroomhq/greenroom/internal/sync"
	"github.com/greenroomhq/greenroom/internal/webhook"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook listener and admin API",
		Long:  "Receives platform webhook events, reconciles them into the store, and serves the admin read API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "greenroom.yaml", "path to Greenroom config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}

	srv, driver, err := buildServer(cfg, gormDB)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if driver != nil {
		go driver.Run(ctx)
	}

	return srv.Start(ctx, admin.StartOpts{Port: port})
}

// buildServer wires the full serve stack from config. The retry driver is
// nil when the redelivery sweep is disabled.
func buildServer(cfg *config.Config, gormDB *gorm.DB) (*admin.Server, *retry.Driver, error) {
	rec, err := reconcile.New(reconcile.Opts{DB: gormDB})
	if err != nil {
		return nil, nil, err
	}
	router, err := webhook.NewRouter(rec)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := webhook.NewVerifier(webhook.VerifierOpts{
		APIKey:        cfg.Platform.APIKey,
		APISecret:     cfg.Platform.APISecret,
		WebhookSecret: cfg.Platform.WebhookSecret,
	})
	if err != nil {
		return nil, nil, err
	}
	hook, err := webhook.NewHandler(webhook.HandlerOpts{DB: gormDB, Verifier: verifier, Router: router})
	if err != nil {
		return nil, nil, err
	}

	client, err := platform.NewHTTPClient(platform.HTTPClientOpts{
		BaseURL:   cfg.Platform.URL,
		APIKey:    cfg.Platform.APIKey,
		APISecret: cfg.Platform.APISecret,
	})
	if err != nil {
		return nil, nil, err
	}
	syncer, err := sync.New(sync.Opts{DB: gormDB, Client: client, Timeout: cfg.Sync.Timeout()})
	if err != nil {
		return nil, nil, err
	}

	srv, err := admin.New(admin.Opts{DB: gormDB, Hook: hook, Syncer: syncer})
	if err != nil {
		return nil, nil, err
	}

	var driver *retry.Driver
	if cfg.Retry.Enabled {
		driver, err = retry.New(retry.Opts{
			DB:          gormDB,
			Router:      router,
			Schedule:    cfg.Retry.Schedule,
			MaxAttempts: cfg.Retry.MaxAttempts,
			Notifier:    buildNotifiers(cfg.Alert),
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return srv, driver, nil
}

// buildNotifiers assembles the operator channels that are configured.
// Returns nil when none are, which disables escalation.
func buildNotifiers(cfg config.AlertConfig) alert.Notifier {
	var fanout alert.Fanout
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		n, err := alert.NewSlack(alert.SlackOpts{Token: cfg.SlackToken, ChannelID: cfg.SlackChannel})
		if err != nil {
			log.Printf("[serve] slack alerts disabled: %v", err)
		} else {
			fanout = append(fanout, n)
		}
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannel != "" {
		n, err := alert.NewDiscord(alert.DiscordOpts{Token: cfg.DiscordToken, ChannelID: cfg.DiscordChannel})
		if err != nil {
			log.Printf("[serve] discord alerts disabled: %v", err)
		} else {
			fanout = append(fanout, n)
		}
	}
	if len(fanout) == 0 {
		return nil
	}
	return fanout
}
