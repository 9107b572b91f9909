package config

import (
	"os"
	"time"

	"github.com/avetikov/ledgersync/internal/record"
)

// parseEnv overlays Config with values from environment variables. A .env
// file loaded by the entrypoint ends up here as well.
//
// Recognized variables:
//
//	LEDGERSYNC_LOCAL_DSN       local SQLite database path
//	LEDGERSYNC_REMOTE_DSN      cloud document store connection string
//	LEDGERSYNC_TENANT_ID       tenant identifier
//	LEDGERSYNC_ROLE            console role: admin, employee or customer
//	LEDGERSYNC_SECRET_KEY      session token signing key
//	LEDGERSYNC_SYNC_INTERVAL   background sync period, e.g. "5m"
func parseEnv(cfg *Config) {
	if v := os.Getenv("LEDGERSYNC_LOCAL_DSN"); v != "" {
		cfg.LocalDSN = v
	}
	if v := os.Getenv("LEDGERSYNC_REMOTE_DSN"); v != "" {
		cfg.RemoteDSN = v
	}
	if v := os.Getenv("LEDGERSYNC_TENANT_ID"); v != "" {
		cfg.TenantID = v
	}
	if v := os.Getenv("LEDGERSYNC_ROLE"); v != "" {
		cfg.Role = record.Role(v)
	}
	if v := os.Getenv("LEDGERSYNC_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("LEDGERSYNC_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AutoSyncInterval = d
		}
	}
}
