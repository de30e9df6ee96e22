// Package migrations embeds the SQL schema migrations so the migrate binary
// ships them inside the image.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
