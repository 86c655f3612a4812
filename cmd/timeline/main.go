package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexanderramin/timeline/internal/cli"
	"github.com/alexanderramin/timeline/internal/config"
	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/metrics"
	"github.com/alexanderramin/timeline/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{
		Gatherer: prometheus.DefaultGatherer,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	// Services are wired once flags, environment and config file are
	// resolved, since the database path and fiscal calendar come from them.
	app.Setup = func(cfg config.Config) error {
		var err error
		database, err = db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		uow := db.NewSQLiteUnitOfWork(database)

		app.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		app.Metrics = metrics.NewObserver(prometheus.DefaultRegisterer)

		var logObserver service.UseCaseObserver
		if cfg.LogUseCases {
			logObserver = service.NewLeveledLogUseCaseObserver(os.Stderr, cfg.LogLevel)
		}
		observer := metrics.NewMultiObserver(logObserver, app.Metrics)

		month := cfg.FiscalStartMonth
		app.Schedule = service.NewScheduleService(uow, month, observer)
		app.Progress = service.NewProgressService(uow, month, observer)
		app.Holidays = service.NewHolidayService(uow, month, observer)
		app.WorkItems = service.NewWorkItemService(uow, observer)
		app.Import = service.NewImportService(uow, month, observer)
		return nil
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
