package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/httpapi"
	"github.com/alexanderramin/timeline/internal/syncjob"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr     string
		basePath string
		syncNow  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the scheduled sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := app.logger()
			if addr == "" {
				addr = app.Config.HTTPAddr
			}

			job, err := app.newSyncJob()
			if err != nil {
				return err
			}
			if syncNow {
				report, err := job.RunOnce(ctx)
				log.Info("initial sync", "chains", report.Chains, "appended", report.Appended, "closed", report.Closed, "failed", report.Failed)
				if err != nil {
					log.Warn("initial sync finished with errors", "err", err)
				}
			}
			if err := job.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				job.Stop(stopCtx)
			}()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			srv := &http.Server{Handler: app.apiHandler(basePath), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving timeline API on http://%s%s (OpenAPI at %s/openapi.json, metrics at /metrics)\n",
				ln.Addr(), basePath, basePath)
			log.Info("http server listening", "addr", ln.Addr().String(), "base_path", basePath, "sync_enabled", job.Enabled())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config http_addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&syncNow, "sync-now", false, "Run one sync of every chain before serving")
	return cmd
}

// apiHandler wires the services, and metrics when configured, into the
// HTTP API.
func (a *App) apiHandler(basePath string) http.Handler {
	cfg := httpapi.Config{
		Schedule:  a.Schedule,
		Progress:  a.Progress,
		Holidays:  a.Holidays,
		WorkItems: a.WorkItems,
		BasePath:  basePath,
		Gatherer:  a.Gatherer,
	}
	if a.Metrics != nil {
		cfg.Recorder = a.Metrics
	}
	return httpapi.New(cfg)
}

func (a *App) newSyncJob() (*syncjob.Job, error) {
	return syncjob.New(syncjob.Config{
		Schedule:                a.Config.Sync.Schedule,
		Resources:               a.Config.Sync.Resources,
		DefaultDurationWorkdays: a.Config.Sync.DefaultDurationWorkdays,
		FiscalStartMonth:        a.Config.FiscalStartMonth,
	}, a.Schedule, a.WorkItems, a.logger())
}
