// Package migrations embeds the server's goose SQL migrations so the binary
// carries its own schema and needs no separate migration step at deploy time.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
