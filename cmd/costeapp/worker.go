package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"costeapp/internal/cli"
	"costeapp/internal/log"
	"costeapp/internal/sheets"
	"costeapp/internal/sheets/google"
	sheetsmem "costeapp/internal/sheets/memory"
	"costeapp/internal/worker"
)

func newWorkerCmd(e *env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:         "worker",
		Short:       "Mirror the fixed costs table into Google Sheets",
		Long:        "Consumes change events and resyncs on SYNC_SCHEDULE, writing the whole table and its total to the configured sheet.",
		Annotations: map[string]string{daemonAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), e, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build snapshots without writing to Google Sheets")
	return cmd
}

func runWorker(parent context.Context, e *env, dryRun bool) error {
	ctx, stop := cli.SignalContext(parent)
	defer stop()

	if !dryRun && !e.cfg.SheetsEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is not set; use --dry-run to run without a sheet")
	}

	app, err := cli.OpenApp(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			e.logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	var writer sheets.SnapshotWriter
	if dryRun {
		e.logger.Info("Dry run: snapshots are kept in memory")
		writer = sheetsmem.New()
	} else {
		writer, err = google.New(ctx, google.Options{
			SpreadsheetID:   e.cfg.GoogleSpreadsheetID,
			SheetName:       e.cfg.GoogleSheetName,
			CredentialsJSON: e.cfg.GoogleServiceAccountJSON,
			CredentialsFile: e.cfg.GoogleServiceAccountFile,
		}, e.logger)
		if err != nil {
			return err
		}
	}

	var consumer worker.Consumer
	if app.Publisher != nil {
		consumer = app.Publisher
	}

	w := worker.NewMirrorWorker(app.Service, writer, e.logger)
	e.logger.Info("Starting mirror worker", "schedule", e.cfg.SyncSchedule, "events", consumer != nil)
	if err := w.Run(ctx, consumer, e.cfg.SyncSchedule); err != nil {
		return err
	}
	e.logger.Info("Mirror worker stopped", "syncs", w.Syncs(), "failures", w.Failures())
	return nil
}
