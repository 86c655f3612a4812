// Package config resolves timeline settings from flags, TIMELINE_*
// environment variables and an optional YAML config file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alexanderramin/timeline/internal/domain"
)

const EnvPrefix = "TIMELINE"

// Keys as they appear in the config file. Environment variables use the
// upper-cased key with dots replaced by underscores (TIMELINE_SYNC_SCHEDULE).
const (
	KeyConfigFile          = "config"
	KeyDB                  = "db"
	KeyFiscalStartMonth    = "fiscal_start_month"
	KeyHTTPAddr            = "http_addr"
	KeyLogLevel            = "log_level"
	KeyLogUseCases         = "log_use_cases"
	KeySyncSchedule        = "sync.schedule"
	KeySyncResources       = "sync.resources"
	KeySyncDefaultDuration = "sync.default_duration_workdays"
)

type Config struct {
	DBPath           string
	FiscalStartMonth time.Month
	HTTPAddr         string
	LogLevel         slog.Level
	// LogUseCases writes one structured line per service use case to stderr.
	LogUseCases bool
	Sync        SyncConfig
}

// SyncConfig drives the periodic work item sync started by serve.
type SyncConfig struct {
	// Schedule is a cron spec; empty disables the job.
	Schedule string
	// Resources limits the sync to these resource keys; empty means every
	// resource that has work items.
	Resources              []string
	DefaultDurationWorkdays int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DBPath:           defaultDBPath(),
		FiscalStartMonth: domain.DefaultFiscalStartMonth,
		HTTPAddr:         "127.0.0.1:8080",
		LogLevel:         slog.LevelInfo,
		Sync: SyncConfig{
			DefaultDurationWorkdays: 5,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".timeline", "timeline.db")
	}
	return filepath.Join(home, ".timeline", "timeline.db")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	d := DefaultConfig()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDB, d.DBPath)
	v.SetDefault(KeyFiscalStartMonth, int(d.FiscalStartMonth))
	v.SetDefault(KeyHTTPAddr, d.HTTPAddr)
	v.SetDefault(KeyLogLevel, d.LogLevel.String())
	v.SetDefault(KeyLogUseCases, d.LogUseCases)
	v.SetDefault(KeySyncSchedule, d.Sync.Schedule)
	v.SetDefault(KeySyncResources, []string{})
	v.SetDefault(KeySyncDefaultDuration, d.Sync.DefaultDurationWorkdays)
	return v
}

// BindFlags registers the global flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("db", "", "SQLite database path (default ~/.timeline/timeline.db)")
	fs.Int("fiscal-start-month", 0, "first month of the fiscal year, 1-12 (default 4)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Bool("log-use-cases", false, "log every service use case to stderr")

	bind := func(key, flag string) {
		_ = v.BindPFlag(key, fs.Lookup(flag))
	}
	bind(KeyConfigFile, "config")
	bind(KeyDB, "db")
	bind(KeyFiscalStartMonth, "fiscal-start-month")
	bind(KeyLogLevel, "log-level")
	bind(KeyLogUseCases, "log-use-cases")
}

// Load reads the optional config file and decodes every setting.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	// Unset flags bind as their zero value; fall back to the default.
	if s := v.GetString(KeyDB); s != "" {
		cfg.DBPath = s
	}
	if m := v.GetInt(KeyFiscalStartMonth); m != 0 {
		if m < 1 || m > 12 {
			return Config{}, fmt.Errorf("%s must be between 1 and 12, got %d", KeyFiscalStartMonth, m)
		}
		cfg.FiscalStartMonth = time.Month(m)
	}
	if s := v.GetString(KeyHTTPAddr); s != "" {
		cfg.HTTPAddr = s
	}
	if s := v.GetString(KeyLogLevel); s != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(s)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
		}
	}
	cfg.LogUseCases = v.GetBool(KeyLogUseCases)

	cfg.Sync.Schedule = strings.TrimSpace(v.GetString(KeySyncSchedule))
	cfg.Sync.Resources = splitList(v.GetStringSlice(KeySyncResources))
	if n := v.GetInt(KeySyncDefaultDuration); n != 0 {
		if n < 0 {
			return Config{}, errors.New(KeySyncDefaultDuration + " must be > 0")
		}
		cfg.Sync.DefaultDurationWorkdays = n
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
