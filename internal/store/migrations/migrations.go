// Package migrations embeds the goose migrations for the local store.
// Migrations must stay additive: the store survives console upgrades and
// existing rows have to be preserved.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
