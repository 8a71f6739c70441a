package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"costeapp/internal/cli"
	apphttp "costeapp/internal/http"
	"costeapp/internal/log"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Serve the fixed costs page",
		Annotations: map[string]string{daemonAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), e)
		},
	}
}

func runServe(parent context.Context, e *env) error {
	ctx, stop := cli.SignalContext(parent)
	defer stop()

	app, err := cli.OpenApp(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			e.logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(apphttp.OptionsFromConfig(e.cfg), app.Service, e.logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("Starting costeapp server",
			"addr", srv.Addr,
			"backend", e.cfg.DataBackend,
			"events", app.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		e.logger.Info("Shutdown signal received")
	}

	cli.Shutdown(e.logger, srv.Shutdown)
	return nil
}
