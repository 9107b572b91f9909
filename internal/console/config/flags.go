package config

import (
	"flag"
	"os"
	"time"

	"github.com/avetikov/ledgersync/internal/flagx"
	"github.com/avetikov/ledgersync/internal/record"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   remote document store DSN
//	-l string   local database path
//	-t string   tenant identifier
//	-r string   console role (admin, employee, customer)
//	-i int      background sync interval in seconds (0 disables)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-l", "-t", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteDSN, "d", cfg.RemoteDSN, "remote document store DSN")
	fs.StringVar(&cfg.LocalDSN, "l", cfg.LocalDSN, "local database path")
	fs.StringVar(&cfg.TenantID, "t", cfg.TenantID, "tenant identifier")
	role := fs.String("r", string(cfg.Role), "console role (admin, employee, customer)")
	interval := fs.Int("i", int(cfg.AutoSyncInterval.Seconds()), "background sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Role = record.Role(*role)
	cfg.AutoSyncInterval = time.Duration(*interval) * time.Second
}
