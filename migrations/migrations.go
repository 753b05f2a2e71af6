// Package migrations embeds the goose SQL migrations for instagram_leads.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
