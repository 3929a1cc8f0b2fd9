// Package migrations embeds the PostgreSQL schema scripts so the server binary
// can bring a fresh database up to date on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
