// Package syncjob reconciles chains with their work items on a cron
// schedule.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
)

// Syncer is the chain use case the job drives.
type Syncer interface {
	Sync(ctx context.Context, req contract.SyncRequest) (*contract.SyncResult, error)
}

// KeySource lists the chains that have work items.
type KeySource interface {
	ListChainKeys(ctx context.Context) ([]domain.ChainKey, error)
}

type Config struct {
	// Schedule is a cron spec ("*/15 * * * *", "@hourly", "@every 10m").
	// Empty disables the job.
	Schedule string
	// Resources restricts the run to these resources. Empty means every
	// chain the key source knows. Either way only the current fiscal year
	// is synced.
	Resources               []string
	DefaultDurationWorkdays int
	FiscalStartMonth        time.Month
}

// Report summarises one run.
type Report struct {
	Chains   int
	Appended int
	Closed   int
	Failed   int
}

type Job struct {
	cfg    Config
	syncer Syncer
	keys   KeySource
	log    *slog.Logger
	now    func() time.Time
	parser cron.Parser

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, syncer Syncer, keys KeySource, log *slog.Logger) (*Job, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.FiscalStartMonth == 0 {
		cfg.FiscalStartMonth = domain.DefaultFiscalStartMonth
	}
	j := &Job{
		cfg:    cfg,
		syncer: syncer,
		keys:   keys,
		log:    log.With("component", "syncjob"),
		now:    func() time.Time { return time.Now().UTC() },
		// SecondOptional accepts both 5 and 6 field specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	if s := strings.TrimSpace(cfg.Schedule); s != "" {
		if _, err := j.parser.Parse(s); err != nil {
			return nil, domain.NewValidationError("sync.schedule", "invalid cron spec %q: %v", s, err)
		}
	}
	if cfg.DefaultDurationWorkdays < 0 {
		return nil, domain.NewValidationError("sync.default_duration_workdays", "must be >= 0, got %d", cfg.DefaultDurationWorkdays)
	}
	return j, nil
}

// Enabled reports whether a schedule is configured.
func (j *Job) Enabled() bool {
	return strings.TrimSpace(j.cfg.Schedule) != ""
}

// Start begins triggering runs. Overlapping runs are skipped. A disabled
// job does nothing.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c != nil || !j.Enabled() {
		return nil
	}
	c := cron.New(cron.WithParser(j.parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(strings.TrimSpace(j.cfg.Schedule), func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Warn("sync run finished with errors", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling sync: %w", err)
	}
	c.Start()
	j.c = c
	j.log.Info("sync job started", "schedule", j.cfg.Schedule, "resources", len(j.cfg.Resources))
	return nil
}

// Stop halts triggering and waits for a running sync to finish or ctx to
// end.
func (j *Job) Stop(ctx context.Context) {
	j.mu.Lock()
	c := j.c
	j.c = nil
	j.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	j.log.Info("sync job stopped")
}

// RunOnce syncs every target chain. A failing chain does not stop the
// others; all failures are returned joined.
func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	keys, err := j.targets(ctx)
	if err != nil {
		return rep, err
	}

	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		req := contract.NewSyncRequest(key.ResourceKey, key.FiscalYear)
		if d := j.cfg.DefaultDurationWorkdays; d > 0 {
			req.DefaultDurationWorkdays = &d
		}
		res, err := j.syncer.Sync(ctx, req)
		rep.Chains++
		if err != nil {
			rep.Failed++
			j.log.Warn("sync failed", "chain", key.String(), "err", err)
			errs = append(errs, fmt.Errorf("syncing %s: %w", key, err))
			continue
		}
		rep.Appended += len(res.Appended)
		rep.Closed += len(res.Closed)
		if len(res.Appended) > 0 || len(res.Closed) > 0 {
			j.log.Info("chain synced", "chain", key.String(),
				"appended", len(res.Appended), "closed", len(res.Closed), "version", res.Chain.Version)
		}
	}
	return rep, errors.Join(errs...)
}

func (j *Job) targets(ctx context.Context) ([]domain.ChainKey, error) {
	fy := domain.FiscalYearOf(j.now(), j.cfg.FiscalStartMonth)
	if len(j.cfg.Resources) == 0 {
		known, err := j.keys.ListChainKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing chains to sync: %w", err)
		}
		keys := make([]domain.ChainKey, 0, len(known))
		for _, k := range known {
			if k.FiscalYear == fy {
				keys = append(keys, k)
			}
		}
		return keys, nil
	}
	keys := make([]domain.ChainKey, 0, len(j.cfg.Resources))
	for _, r := range j.cfg.Resources {
		if r = strings.TrimSpace(r); r != "" {
			keys = append(keys, domain.ChainKey{ResourceKey: r, FiscalYear: fy})
		}
	}
	return keys, nil
}
