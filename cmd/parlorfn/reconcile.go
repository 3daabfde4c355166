package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/reconcile"
	"github.com/parlorchat/functions/internal/storage"
)

var reconcileDryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair messages left unmarked by interrupted moderation runs",
	Long: `Reconcile scans messages that still carry unmoderated image links,
heads each stored object, and marks the messages whose blob metadata shows
the blur already happened. This closes the gap a crash between re-upload and
message update leaves behind.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report what would change without writing")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log.Println("🔍 Reconciling moderation state...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := cmd.Context()

	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer docs.Close(ctx)
	log.Println("✅ Document store connected")

	blobs, err := storage.NewS3BlobStore(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	reconciler := reconcile.New(docstore.NewMessageStore(docs), blobs, reconcileDryRun)
	report, err := reconciler.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	log.Printf("✅ Scanned %d message(s): %d repaired, %d healthy, %d error(s)",
		report.Scanned, report.Repaired, report.Healthy, report.Errors)
	if reconcileDryRun && report.Repaired > 0 {
		log.Printf("ℹ️  Dry run: %d message(s) would have been marked", report.Repaired)
	}

	if report.Errors > 0 {
		return fmt.Errorf("%d message(s) could not be checked", report.Errors)
	}
	return nil
}
