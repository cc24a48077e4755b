package migrations

import "embed"

// PostgresFS embeds the PostgreSQL migration files, applied in lexical order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
