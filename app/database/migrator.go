package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type MigrationStatus struct {
	Name       string
	Applied    bool
	ExecutedAt sql.NullTime
}

// Migrator applies the *.sql files of source in lexical order and records
// each applied file name in schema_migrations. Down migrations are not supported.
type Migrator struct {
	db     *sql.DB
	source fs.FS
}

func NewMigrator(db *sql.DB, source fs.FS) *Migrator {
	return &Migrator{db: db, source: source}
}

func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	executed, err := m.executed(ctx)
	if err != nil {
		return nil, err
	}

	names, err := m.files()
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0)
	for _, name := range names {
		if _, ok := executed[name]; ok {
			continue
		}

		content, err := fs.ReadFile(m.source, name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err = m.db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("apply migration %s: %w", name, err)
			}
		}

		if _, err = m.db.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, executed_at) VALUES (?, ?)`,
			name, time.Now().UTC(),
		); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", name, err)
		}

		logrus.WithField("migration", name).Info("Migration applied")
		applied = append(applied, name)
	}

	return applied, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	executed, err := m.executed(ctx)
	if err != nil {
		return nil, err
	}

	names, err := m.files()
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(names))
	for _, name := range names {
		executedAt, ok := executed[name]
		statuses = append(statuses, MigrationStatus{
			Name:       name,
			Applied:    ok,
			ExecutedAt: sql.NullTime{Time: executedAt, Valid: ok},
		})
	}
	return statuses, nil
}

func (m *Migrator) executed(ctx context.Context) (map[string]time.Time, error) {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) NOT NULL PRIMARY KEY,
			executed_at DATETIME NOT NULL
		)
	`); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `SELECT name, executed_at FROM schema_migrations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executed := make(map[string]time.Time)
	for rows.Next() {
		var (
			name       string
			executedAt time.Time
		)
		if err = rows.Scan(&name, &executedAt); err != nil {
			return nil, err
		}
		executed[name] = executedAt
	}
	return executed, rows.Err()
}

func (m *Migrator) files() ([]string, error) {
	names, err := fs.Glob(m.source, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements breaks a migration file on statement-terminating semicolons.
// Migration files must not embed ';' inside string literals.
func splitStatements(content string) []string {
	parts := strings.Split(content, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
