package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/db"
	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/reconcile"
	"github.com/greenroomhq/greenroom/internal/retry"
	"github.com/greenroomhq/greenroom/internal/webhook"
)

func newRetryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Replay stored events whose reconciliation failed",
		Long:  "Runs one redelivery sweep over unprocessed webhook events and exits. The serve command runs the same sweep on a schedule when retry is enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "greenroom.yaml", "path to Greenroom config file")
	return cmd
}

func runRetry(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}

	rec, err := reconcile.New(reconcile.Opts{DB: gormDB})
	if err != nil {
		return err
	}
	router, err := webhook.NewRouter(rec)
	if err != nil {
		return err
	}
	driver, err := retry.New(retry.Opts{
		DB:          gormDB,
		Router:      router,
		Schedule:    cfg.Retry.Schedule,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Notifier:    buildNotifiers(cfg.Alert),
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if err := driver.Sweep(ctx); err != nil {
		return err
	}

	var pending int64
	gormDB.Model(&models.WebhookEvent{}).Where("processed = ?", false).Count(&pending)
	fmt.Fprintf(out, "Sweep complete; %d event(s) still pending.\n", pending)
	return nil
}
