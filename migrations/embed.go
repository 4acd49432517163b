// Package migrations embeds the schema migration files.
package migrations

import "embed"

// FS contains the migration SQL files, applied at service start.
//
//go:embed *.sql
var FS embed.FS
