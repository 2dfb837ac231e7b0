// Package migrations embeds the SQL schema so binaries and tests migrate
// without a checkout on disk.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir is the directory inside Postgres holding the migration files.
const PostgresDir = "postgres"
