package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/feedstream.sqlite" description:"Path to the SQLite database file"`
	BackupDir string `long:"backup-dir" env:"BACKUP_DIR" default:"./data/backups" description:"Directory for automatic database backups"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	MaxConcurrency    int    `long:"max-concurrency" env:"MAX_CONCURRENCY" default:"6" description:"Maximum number of feeds fetched in parallel"`
	FetchTimeout      int    `long:"fetch-timeout" env:"FETCH_TIMEOUT_MS" default:"12000" description:"Feed fetch timeout in milliseconds"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler tick interval in seconds"`
	ReaderCacheTTL    int    `long:"reader-cache-ttl" env:"READER_CACHE_TTL_HOURS" default:"720" description:"Reader cache retention in hours"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	SubscriptionsFile string `long:"subscriptions-file" env:"SUBSCRIPTIONS_FILE" description:"Optional YAML file with feed subscriptions to register at startup"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FeedStream/1.0 (compatible; RSS Reader)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		BackupDir:         raw.BackupDir,
		Port:              raw.Port,
		MaxConcurrency:    raw.MaxConcurrency,
		FetchTimeout:      raw.FetchTimeout,
		SchedulerInterval: raw.SchedulerInterval,
		ReaderCacheTTL:    raw.ReaderCacheTTL,
		APIAccessKey:      raw.APIAccessKey,
		SubscriptionsFile: raw.SubscriptionsFile,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
