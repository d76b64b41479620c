// Package migrations applies the embedded SQL schemas to PostgreSQL and
// ClickHouse. Migration files are idempotent and applied in lexical
// order.
package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
