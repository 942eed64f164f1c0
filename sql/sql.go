// Package sql embeds the database migrations.
package sql

import "embed"

//go:embed schema/*.sql
var MigrationsFS embed.FS
