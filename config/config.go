package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Bybit    BybitConfig    `mapstructure:"bybit"`
	Backfill BackfillConfig `mapstructure:"backfill"`
}

// StoreConfig selects the relational store behind the engine.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`      // "postgres" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"` // used when driver is "sqlite"
	CreateDB   bool   `mapstructure:"create_db"`   // create the postgres database on migrate
}

// CalendarConfig describes how a calendar date maps to a trading session.
type CalendarConfig struct {
	Location     string `mapstructure:"location"`      // IANA zone, e.g. "America/New_York"
	SessionOpen  string `mapstructure:"session_open"`  // "09:30"
	SessionClose string `mapstructure:"session_close"` // "16:00"
	Weekends     bool   `mapstructure:"weekends"`      // include Saturday and Sunday sessions
}

type BybitConfig struct {
	REST RESTConfig `mapstructure:"rest"`
}

type RESTConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Category string        `mapstructure:"category"`
}

type BackfillConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Interval    string `mapstructure:"interval"` // bybit interval code, e.g. "5"
	Days        int    `mapstructure:"days"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads config.yaml from dir (or next to the executable when dir is empty)
// and overrides with environment variables.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., POSTGRES_HOST)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "./tradecal.sqlite")

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("calendar.location", "UTC")
	v.SetDefault("calendar.session_open", "00:00")
	v.SetDefault("calendar.session_close", "24:00")
	v.SetDefault("calendar.weekends", true)

	v.SetDefault("bybit.rest.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.rest.timeout", 10*time.Second)
	v.SetDefault("bybit.rest.category", "linear")

	v.SetDefault("backfill.concurrency", 5)
	v.SetDefault("backfill.interval", "5")
	v.SetDefault("backfill.days", 1)
}

// Validate checks the settings the store and calendar cannot run without.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Postgres.DBName == "" {
			return fmt.Errorf("postgres.dbname is required")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("store.driver must be 'postgres' or 'sqlite', got %q", c.Store.Driver)
	}
	if _, err := time.LoadLocation(c.Calendar.Location); err != nil {
		return fmt.Errorf("calendar.location: %w", err)
	}
	if c.Backfill.Concurrency <= 0 {
		return fmt.Errorf("backfill.concurrency must be positive")
	}
	return nil
}
