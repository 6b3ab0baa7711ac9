// Package migrations embeds the SQL schema of the ratio store.
package migrations

import "embed"

// FS holds the *.sql files, applied in file name order
//
//go:embed *.sql
var FS embed.FS
