package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run ^TestLoad$
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store:
  driver: sqlite
  sqlite_path: /tmp/cal.db
calendar:
  location: America/New_York
  session_open: "09:30"
  session_close: "16:00"
  weekends: false
postgres:
  conn_max_lifetime: 30m
`), 0o644))
	t.Setenv("BACKFILL_CONCURRENCY", "3")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "America/New_York", cfg.Calendar.Location)
	assert.False(t, cfg.Calendar.Weekends)
	assert.Equal(t, 30*time.Minute, cfg.Postgres.ConnMaxLifetime)
	assert.Equal(t, 3, cfg.Backfill.Concurrency)

	// defaults
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "5", cfg.Backfill.Interval)
	assert.Equal(t, 10*time.Second, cfg.Bybit.REST.Timeout)
}

// go test -v --run ^TestLoadMissingFile$
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

// go test -v --run ^TestValidate$
func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:    StoreConfig{Driver: "postgres"},
			Postgres: PostgresConfig{DBName: "tradecal"},
			Calendar: CalendarConfig{Location: "UTC"},
			Backfill: BackfillConfig{Concurrency: 1},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Postgres.DBName = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Calendar.Location = "Nowhere/City"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Backfill.Concurrency = 0
	assert.Error(t, cfg.Validate())
}

// go test -v --run ^TestDSN$
func TestDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:          "localhost",
		Port:          5432,
		User:          "postgres",
		Password:      "yourpw",
		DBName:        "tradecal",
		SSLMode:       "disable",
		TimeZone:      "UTC",
		HostParam:     "/tradecal/db/host",
		UserParam:     "/tradecal/db/user",
		PasswordParam: "/tradecal/db/password",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=yourpw dbname=tradecal sslmode=disable TimeZone=UTC",
		cfg.dsn("dev", nil),
	)

	params := map[string]string{
		"/tradecal/db/host":     "db.internal",
		"/tradecal/db/user":     "svc",
		"/tradecal/db/password": "s3cret",
	}
	lookup := func(name string, decrypt bool) string {
		assert.True(t, decrypt)
		return params[name]
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=s3cret dbname=tradecal sslmode=disable TimeZone=UTC",
		cfg.dsn("prod", lookup),
	)
}

// go test -v --run ^TestServerDSN$
func TestServerDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "tradecal", SSLMode: "disable"}
	assert.Contains(t, cfg.ServerDSN("dev"), "dbname=postgres")
	assert.Equal(t, "tradecal", cfg.DBName)
}
