// Package migrations embeds the PostgreSQL schema migrations so that the
// migrate command and integration tests apply the same files.
package migrations

import "embed"

// FS holds every *.sql migration, named in golang-migrate order.
//
//go:embed *.sql
var FS embed.FS
