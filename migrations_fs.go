package flexconnect

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the token table schema for both dialects; the sqlite
// variants live under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded migration tree.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}
