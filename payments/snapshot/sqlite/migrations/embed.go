package migrations

import "embed"

// FS contains the embedded snapshot schema migrations.
//
//go:embed *.sql
var FS embed.FS
