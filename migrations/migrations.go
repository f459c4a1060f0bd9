// Package migrations embeds the SQL schema applied by golang-migrate.
package migrations

import "embed"

// FS holds the versioned migration files.
//
//go:embed *.sql
var FS embed.FS
