// Package migrations embeds the SQL schema files applied by the migrate command.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
