// Package appfs embeds static assets shipped inside the binary.
package appfs

import "embed"

// FS holds the goose SQL migrations.
//
//go:embed migrations
var FS embed.FS
