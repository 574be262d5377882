// Package migrations embeds the client's goose SQL migrations so the local
// cache database is self-provisioning on first run.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
