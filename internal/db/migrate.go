package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// migrationsDir is the directory inside the migrations FS holding the
// numbered .sql files.
const migrationsDir = "schema"

var versionPattern = regexp.MustCompile(`^(\d+)`)

type migration struct {
	name    string
	version int
}

// ApplyMigrations applies SQL migrations from migrationsFS to the given db.
func ApplyMigrations(db *sql.DB, migrationsFS fs.FS) error {
	_, err := ApplyMigrationsContext(context.Background(), db, migrationsFS)
	return err
}

// ApplyMigrationsContext applies every migration not yet recorded in
// schema_migrations, in version order, and returns the versions it applied.
func ApplyMigrationsContext(ctx context.Context, db *sql.DB, migrationsFS fs.FS) ([]int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	items, err := listMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}

	var done []int
	for _, it := range items {
		if applied[it.version] {
			continue
		}
		if err := applyOne(ctx, db, migrationsFS, it); err != nil {
			return done, err
		}
		done = append(done, it.version)
	}
	return done, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// listMigrations returns the numbered .sql files sorted by version. Files
// without a leading number are ignored.
func listMigrations(migrationsFS fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var items []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := versionPattern.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		items = append(items, migration{name: name, version: v})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].version < items[j].version })
	return items, nil
}

func applyOne(ctx context.Context, db *sql.DB, migrationsFS fs.FS, it migration) error {
	b, err := fs.ReadFile(migrationsFS, path.Join(migrationsDir, it.name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", it.name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(b)); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", it.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(?)`, it.version); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration %s: %w", it.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", it.name, err)
	}
	return nil
}
