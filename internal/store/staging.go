package store

import (
	"context"
	"fmt"

	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/queryir"
	"github.com/chw3k5/mypysql/internal/querysql"
)

// Materialize stores the result of query as the TEMP table name.
func (s *Store) Materialize(ctx context.Context, name, query string, args []any) error {
	if !queryir.IsIdentifier(name) {
		return fmt.Errorf("materialize: invalid staged name %q", name)
	}
	if _, err := s.db.ExecContext(ctx, querysql.CreateStagedSQL(name, query), args...); err != nil {
		return ir.NewBackendError("materialize "+name, err)
	}
	return nil
}

// DropStaged removes the TEMP table name. Dropping a missing table is not an error.
func (s *Store) DropStaged(ctx context.Context, name string) error {
	if !queryir.IsIdentifier(name) {
		return fmt.Errorf("drop staged: invalid staged name %q", name)
	}
	if _, err := s.db.ExecContext(ctx, querysql.DropStagedSQL(name)); err != nil {
		return ir.NewBackendError("drop staged "+name, err)
	}
	return nil
}

// StagedTables lists the TEMP tables of the store's connection, sorted by name.
func (s *Store) StagedTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_temp_master WHERE type = 'table' ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, ir.NewBackendError("list staged", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ir.NewBackendError("list staged", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, ir.NewBackendError("list staged", err)
	}
	return names, nil
}
