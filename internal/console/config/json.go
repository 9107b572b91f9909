package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avetikov/ledgersync/internal/flagx"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the file can specify intervals either as strings like
// "5m" or as integer nanoseconds.
type JsonConfig struct {
	LocalDSN         string         `json:"local_dsn"`
	RemoteDSN        string         `json:"remote_dsn"`
	TenantID         string         `json:"tenant_id"`
	Role             string         `json:"role"`
	SecretKey        string         `json:"secret_key"`
	AutoSyncInterval timex.Duration `json:"auto_sync_interval"`
	SyncOnStartup    *bool          `json:"sync_on_startup"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flag. Absent fields leave the current values untouched.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.LocalDSN != "" {
		cfg.LocalDSN = jc.LocalDSN
	}
	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.TenantID != "" {
		cfg.TenantID = jc.TenantID
	}
	if jc.Role != "" {
		cfg.Role = record.Role(jc.Role)
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.AutoSyncInterval.Duration != 0 {
		cfg.AutoSyncInterval = time.Duration(jc.AutoSyncInterval.Duration)
	}
	if jc.SyncOnStartup != nil {
		cfg.SyncOnStartup = *jc.SyncOnStartup
	}
}
