package sqlstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Initializer creates or reconciles the tables one repository owns.
type Initializer interface {
	Init(ctx context.Context) error
}

// Schema runs repository initializers in order until one full pass succeeds.
// A failed pass is retried on the next Ensure, so a store that comes up
// after the process starts still gets its tables.
type Schema struct {
	mu    sync.Mutex
	ready atomic.Bool
	steps []Initializer
}

func NewSchema(steps ...Initializer) *Schema {
	return &Schema{steps: steps}
}

func (s *Schema) Ensure(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return nil
	}

	for _, step := range s.steps {
		if err := step.Init(ctx); err != nil {
			return err
		}
	}
	s.ready.Store(true)
	return nil
}

// columnAddition is an additive schema change applied when a column is missing.
type columnAddition struct {
	name       string
	statements []string
}

func (db *DB) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	columns := map[string]struct{}{}

	if db.dialect == MySQL {
		rows, err := db.QueryContext(ctx, `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?`,
			table,
		)
		if err != nil {
			return nil, fmt.Errorf("describe %s table: %w", table, err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, fmt.Errorf("scan column name: %w", err)
			}
			columns[name] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate columns: %w", err)
		}
		return columns, nil
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("describe %s table: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan pragma table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pragma table info: %w", err)
	}
	return columns, nil
}

// ensureColumns brings a table created by an older build up to date. It only
// ever adds columns and indexes; existing rows are kept.
func (db *DB) ensureColumns(ctx context.Context, table string, additions []columnAddition) error {
	columns, err := db.tableColumns(ctx, table)
	if err != nil {
		return err
	}

	for _, add := range additions {
		if _, exists := columns[add.name]; exists {
			continue
		}
		for _, stmt := range add.statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s.%s: %w", table, add.name, err)
			}
		}
	}
	return nil
}
