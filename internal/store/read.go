package store

import (
	"context"
	"fmt"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/queryir"
)

// QueryRows runs a query and returns its column names and every row.
// TEXT values read as []byte by the driver are copied into strings.
// Errors are wrapped as BACKEND_EXECUTION.
func (s *Store) QueryRows(ctx context.Context, query string, args []any) ([]string, [][]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, ir.NewBackendError("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, ir.NewBackendError("read columns", err)
	}

	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, ir.NewBackendError("scan row", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, ir.NewBackendError("iterate rows", err)
	}
	return columns, out, nil
}

// Registries enumerates the parameter catalogs and fact-table columns
// named by schema. It implements catalog.Source.
func (s *Store) Registries(ctx context.Context, schema catalog.Schema) (catalog.Registries, error) {
	var reg catalog.Registries
	var err error

	if reg.FloatParams, err = s.readNames(ctx, schema.FloatCatalog); err != nil {
		return catalog.Registries{}, fmt.Errorf("float catalog: %w", err)
	}
	if reg.StringParams, err = s.readNames(ctx, schema.StringCatalog); err != nil {
		return catalog.Registries{}, fmt.Errorf("string catalog: %w", err)
	}
	if reg.SpectrumColumns, err = s.readNames(ctx, schema.SpectrumCatalog); err != nil {
		return catalog.Registries{}, fmt.Errorf("spectrum catalog: %w", err)
	}
	if reg.FloatColumns, err = s.TableColumns(ctx, schema.FloatFacts); err != nil {
		return catalog.Registries{}, fmt.Errorf("float columns: %w", err)
	}
	if reg.StringColumns, err = s.TableColumns(ctx, schema.StringFacts); err != nil {
		return catalog.Registries{}, fmt.Errorf("string columns: %w", err)
	}
	return reg, nil
}

// readNames reads the single column of a catalog table or view, skipping NULLs.
func (s *Store) readNames(ctx context.Context, table string) ([]string, error) {
	if !queryir.IsIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY 1 COLLATE BINARY ASC", table)
	_, rows, err := s.QueryRows(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		names = append(names, fmt.Sprint(row[0]))
	}
	return names, nil
}

// TableColumns lists the columns of table in declaration order.
func (s *Store) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, ir.NewBackendError("table info", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ir.NewBackendError("table info", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, ir.NewBackendError("table info", err)
	}
	if len(names) == 0 {
		return nil, ir.NewBackendError("table info", fmt.Errorf("no such table: %s", table))
	}
	return names, nil
}
