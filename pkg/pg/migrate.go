package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migration is a named set of goose SQL files. Dir is the directory inside FS.
type Migration struct {
	FS  fs.FS
	Dir string
}

// Migrate applies every migration set in order. Sets share one version table,
// so file versions must be unique across sets.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger, sets ...Migration) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}()

	goose.SetLogger(gooseLogger{log: log})
	goose.SetTableName(cfg.MigrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	for _, set := range sets {
		goose.SetBaseFS(set.FS)
		if err := goose.UpContext(ctx, db, set.Dir, goose.WithAllowMissing()); err != nil {
			goose.SetBaseFS(nil)
			return errors.Join(ErrFailedToApplyMigrations, err)
		}
	}
	goose.SetBaseFS(nil)

	return nil
}

type gooseLogger struct {
	log logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
