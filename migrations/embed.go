// Package migrations embeds the versioned SQL schema so binaries can
// migrate without the files on disk.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
