package queryir

import "github.com/chw3k5/mypysql/internal/ir"

// Source is a relation that can appear in FROM or JOIN.
//
// This is a sealed interface - only Table and Staged implement it.
type Source interface {
	sourceNode() // Marker method - seals interface to this package
}

// Expr is a scalar expression in a select list or predicate.
//
// This is a sealed interface - only Column, Literal and Null implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Predicate is a boolean expression used in ON and WHERE.
//
// This is a sealed interface - only Compare, And and Chain implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Table is a schema table or view accessed under an alias.
type Table struct {
	Name  string
	Alias string
}

func (Table) sourceNode() {}

// Staged is the materialized result of a first-stage query.
//
// Its physical name is only known at execution time, so it is supplied to
// the renderer rather than stored in the plan.
type Staged struct {
	Alias string
}

func (Staged) sourceNode() {}

// Column references a column, qualified by a source alias when Table is set.
type Column struct {
	Table string
	Name  string
}

func (Column) exprNode() {}

// Literal is a value bound as a query parameter.
type Literal struct {
	Value ir.Value
}

func (Literal) exprNode() {}

// Null is the SQL NULL keyword, used for output columns that have no source.
type Null struct{}

func (Null) exprNode() {}

// Compare is a binary comparison: Left Op Right.
type Compare struct {
	Left  Expr
	Op    string
	Right Expr
}

func (Compare) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Link is one caller condition inside a Chain.
//
// Logic joins the link to the previous one and is ignored on the first link.
type Link struct {
	Logic       ir.Logic
	OpenParens  int
	Left        Expr
	Op          string
	Right       Expr
	CloseParens int
}

// Chain is an ordered condition list rendered with the caller's nesting.
type Chain struct {
	Links []Link
}

func (Chain) predicateNode() {}

// JoinKind selects the join operator.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT OUTER"
)

// Join attaches Source to the query under the On predicate.
type Join struct {
	Kind   JoinKind
	Source Source
	On     Predicate
}

// Output is one select-list entry: Expr AS Name.
type Output struct {
	Expr Expr
	Name string
}

// Select is a complete query.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from> <joins> [WHERE <where>] ORDER BY <order>
//
// Joins are rendered in slice order. OrderBy is mandatory so that results
// arrive in a deterministic order.
type Select struct {
	Distinct bool
	Columns  []Output
	From     Source
	Joins    []Join
	Where    Predicate
	OrderBy  []Expr
}

// Col is shorthand for a qualified Column.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// Eq is shorthand for Compare{left, "=", right}.
func Eq(left, right Expr) Compare {
	return Compare{Left: left, Op: "=", Right: right}
}

// Aliases returns the alias of every source in declaration order: From
// first, then each join.
func (s *Select) Aliases() []string {
	aliases := make([]string, 0, len(s.Joins)+1)
	if a := sourceAlias(s.From); a != "" {
		aliases = append(aliases, a)
	}
	for _, j := range s.Joins {
		if a := sourceAlias(j.Source); a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases
}

// OutputNames returns the select-list names in order.
func (s *Select) OutputNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func sourceAlias(src Source) string {
	switch s := src.(type) {
	case Table:
		return s.Alias
	case Staged:
		return s.Alias
	}
	return ""
}
