// Package migrations embeds the SQL schema files so binaries can apply
// them without a checkout on disk.
package migrations

import "embed"

//go:embed sql
var FS embed.FS

// Dir is the path of the migration files inside FS.
const Dir = "sql"
