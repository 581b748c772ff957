package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	httpapp "github.com/Egonyu/tesotunes-next-web-sub012/internal/http"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noWorkers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			defer func() { _ = ctx.close() }()

			ingest, err := ctx.ingest(signalCtx)
			if err != nil {
				return err
			}

			if !noWorkers {
				w, err := ctx.newWorker(signalCtx)
				if err != nil {
					return err
				}
				w.Start()
				defer w.Stop()
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			httpapp.NewHandler(ingest, ctx.logger).RegisterRoutes(r)

			srv := &http.Server{
				Addr:              ":" + ctx.cfg.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				ctx.logger.Info("Server listening", "addr", srv.Addr, "workers", !noWorkers)
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
			case <-signalCtx.Done():
			}

			ctx.logger.Info("Shutting down server")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "Serve the API without processing tasks")
	return cmd
}

func newWorkCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Process queued tasks without serving the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			defer func() { _ = ctx.close() }()

			w, err := ctx.newWorker(signalCtx)
			if err != nil {
				return err
			}

			if once {
				n, err := w.RunOnce(signalCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d task(s)\n", n)
				return nil
			}

			w.Start()
			ctx.logger.Info("Worker running", "concurrency", w.MaxConcurrent)
			<-signalCtx.Done()
			w.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run every due task once and exit")
	return cmd
}
