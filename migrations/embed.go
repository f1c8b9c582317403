// Package migrations embeds the SQL schema migrations so the server and the
// `migrate` command can drive goose without a migrations directory on disk.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
