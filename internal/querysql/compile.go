package querysql

import (
	"fmt"
	"strings"

	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/queryir"
)

// Mode selects how literals are rendered.
type Mode int

const (
	// Parameterized renders every literal as a ? placeholder and returns the
	// values as args. This is the only mode used for execution.
	Parameterized Mode = iota

	// Inline renders literals in place using the display quoting policy:
	// numbers unquoted, text single-quoted. For explain output only.
	Inline
)

// SQLCompiler renders Query IR to SQLite SQL.
//
// Table and column names that are SQLite keywords are double-quoted; aliases
// are planner-generated and never are.
//
// CRITICAL: every query carries ORDER BY for deterministic results.
// CRITICAL: in Parameterized mode values are never interpolated.
type SQLCompiler struct {
	// StageName is the physical name substituted for queryir.Staged sources.
	// Must be set before compiling a second-stage query.
	StageName string

	Mode Mode
}

// NewSQLCompiler creates a compiler in Parameterized mode.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Mode: Parameterized}
}

// Compile validates sel and renders it. Returns (sql, params, error).
func (c *SQLCompiler) Compile(sel *queryir.Select) (string, []any, error) {
	if sel == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(sel).Err(); err != nil {
		return "", nil, err
	}

	r := &renderer{mode: c.Mode}
	var b strings.Builder

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, col := range sel.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.output(col))
	}

	from, err := c.source(sel.From)
	if err != nil {
		return "", nil, err
	}
	b.WriteString("\nFROM ")
	b.WriteString(from)

	for _, j := range sel.Joins {
		src, err := c.source(j.Source)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, "\n%s JOIN %s ON %s", j.Kind, src, r.predicate(j.On))
	}

	if sel.Where != nil {
		b.WriteString("\nWHERE ")
		b.WriteString(r.predicate(sel.Where))
	}

	b.WriteString("\nORDER BY ")
	for i, e := range sel.OrderBy {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.expr(e))
		b.WriteString(" COLLATE BINARY ASC")
	}

	return b.String(), r.params, nil
}

// source renders a FROM/JOIN source as "name AS alias".
func (c *SQLCompiler) source(src queryir.Source) (string, error) {
	switch s := src.(type) {
	case queryir.Table:
		return quoteIdent(s.Name) + " AS " + s.Alias, nil
	case queryir.Staged:
		if c.StageName == "" {
			return "", fmt.Errorf("staged source %q requires StageName", s.Alias)
		}
		return c.StageName + " AS " + s.Alias, nil
	default:
		return "", fmt.Errorf("unsupported source type: %T", src)
	}
}

// renderer accumulates parameters in the order placeholders are emitted.
type renderer struct {
	mode   Mode
	params []any
}

// output renders "expr AS name", omitting the alias when it would repeat
// the column name.
func (r *renderer) output(o queryir.Output) string {
	if col, ok := o.Expr.(queryir.Column); ok && col.Name == o.Name {
		return r.expr(col)
	}
	return r.expr(o.Expr) + " AS " + quoteIdent(o.Name)
}

func (r *renderer) expr(e queryir.Expr) string {
	switch ex := e.(type) {
	case queryir.Column:
		if ex.Table == "" {
			return quoteIdent(ex.Name)
		}
		return ex.Table + "." + quoteIdent(ex.Name)
	case queryir.Literal:
		if r.mode == Inline {
			return ir.SQLLiteral(ex.Value)
		}
		r.params = append(r.params, ir.Param(ex.Value))
		return "?"
	case queryir.Null:
		return "NULL"
	default:
		// Validate rejects unknown expressions before rendering.
		return "NULL"
	}
}

func (r *renderer) predicate(p queryir.Predicate) string {
	switch pred := p.(type) {
	case queryir.Compare:
		return r.comparison(pred.Left, pred.Op, pred.Right)
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1"
		}
		parts := make([]string, len(pred.Predicates))
		for i, sub := range pred.Predicates {
			parts[i] = r.predicate(sub)
		}
		return strings.Join(parts, " AND ")
	case queryir.Chain:
		return r.chain(pred)
	default:
		return "1 = 1"
	}
}

func (r *renderer) comparison(left queryir.Expr, op string, right queryir.Expr) string {
	return r.expr(left) + " " + op + " " + r.expr(right)
}

// chain renders the caller's conditions inside one outer parenthesis pair.
// The first link's logic prefix is suppressed.
func (r *renderer) chain(c queryir.Chain) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, link := range c.Links {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(string(link.Logic))
			b.WriteByte(' ')
		}
		b.WriteString(strings.Repeat("(", link.OpenParens))
		b.WriteString(r.comparison(link.Left, link.Op, link.Right))
		b.WriteString(strings.Repeat(")", link.CloseParens))
	}
	b.WriteByte(')')
	return b.String()
}

// CreateStagedSQL wraps a first-stage query so that its result is
// materialized under name for the lifetime of the connection.
func CreateStagedSQL(name, query string) string {
	return "CREATE TEMP TABLE " + name + " AS\n" + query
}

// DropStagedSQL removes a staged result created by CreateStagedSQL.
func DropStagedSQL(name string) string {
	return "DROP TABLE IF EXISTS temp." + name
}
