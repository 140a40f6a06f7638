package entitlement

import (
	"embed"

	"github.com/lucasviinic/flashly-api/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the goose migrations for the subscriptions table. They
// reference users(id) and must run after the users migration.
func Migrations() pg.Migration {
	return pg.Migration{FS: migrationsFS, Dir: "migrations"}
}
