package study

import (
	"embed"

	"github.com/lucasviinic/flashly-api/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the goose migrations for users, subjects and flashcards.
func Migrations() pg.Migration {
	return pg.Migration{FS: migrationsFS, Dir: "migrations"}
}
