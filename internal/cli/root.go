// Package cli implements the timeline command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexanderramin/timeline/internal/config"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/metrics"
	"github.com/alexanderramin/timeline/internal/service"
)

// App holds the services CLI commands run against.
type App struct {
	Schedule  service.ScheduleService
	Progress  service.ProgressService
	Holidays  service.HolidayService
	WorkItems service.WorkItemService
	Import    service.ImportService

	// Config is resolved before any command runs.
	Config config.Config
	// Setup wires the services once Config is known. Tests leave it nil
	// and set the services directly.
	Setup func(cfg config.Config) error

	// Metrics and Gatherer back the /metrics endpoint of serve.
	Metrics  *metrics.Observer
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	IsInteractive func() bool
	// RunForm runs a huh form; replaced in tests.
	RunForm func(f *huh.Form) error
	// RunBoard runs the board program; replaced in tests.
	RunBoard func(m *boardModel) error

	// Now is the clock used for command defaults such as the current
	// fiscal year.
	Now func() time.Time

	jsonOutput bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// currentFiscalYear is the default for --fy.
func (a *App) currentFiscalYear() int {
	return domain.FiscalYearOf(a.now(), a.Config.FiscalStartMonth)
}

// NewRootCmd creates the top-level "timeline" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	v := config.New()
	root := &cobra.Command{
		Use:           "timeline",
		Short:         "Fiscal-year schedule chains over business days",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.configure(v)
		},
	}
	config.BindFlags(v, root.PersistentFlags())
	root.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newChainCmd(app),
		newProgressCmd(app),
		newHolidayCmd(app),
		newWorkItemCmd(app),
		newPlanCmd(app),
		newBoardCmd(app),
		newServeCmd(app),
	)
	return root
}

func (a *App) configure(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.Config = cfg
	if a.Setup == nil {
		return nil
	}
	return a.Setup(cfg)
}

// render prints v as indented JSON under --json and the formatted text
// otherwise.
func (a *App) render(cmd *cobra.Command, v any, text func() string) error {
	out := cmd.OutOrStdout()
	if a.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, text())
	return err
}
