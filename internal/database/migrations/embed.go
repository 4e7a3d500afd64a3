// Package migrations holds the SQL schema for the sqlite store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
