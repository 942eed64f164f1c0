package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	fssql "imagecompressor/sql"
)

// InitDB opens a SQLite database at path and applies embedded migrations.
func InitDB(ctx context.Context, path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	// Connection pragmas go in the DSN so every pooled connection gets them.
	// The worker and request handlers write concurrently.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	applied, err := ApplyMigrationsContext(ctx, db, fssql.MigrationsFS)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(applied) > 0 {
		log.Infow("db: migrations applied", "versions", applied, "path", path)
	}

	return db, nil
}
