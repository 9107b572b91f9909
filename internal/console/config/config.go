package config

import (
	"time"

	"github.com/avetikov/ledgersync/internal/record"
)

// Config holds runtime settings for a distribution console.
//
// Fields:
//   - LocalDSN: path of the local SQLite database file.
//   - RemoteDSN: connection string of the cloud document store.
//   - TenantID: the tenant whose documents this console works with.
//   - Role: which console variant to run (admin, employee or customer).
//   - SecretKey: signing key for session tokens.
//   - AutoSyncInterval: background sync period; zero disables it.
//   - SyncOnStartup: run a full sync right after login.
type Config struct {
	LocalDSN         string
	RemoteDSN        string
	TenantID         string
	Role             record.Role
	SecretKey        string
	AutoSyncInterval time.Duration
	SyncOnStartup    bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LocalDSN = "ledgersync.db"
	c.Role = record.RoleEmployee
	c.AutoSyncInterval = 0
	c.SyncOnStartup = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if present) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
