package queryir

import (
	"fmt"
	"regexp"

	"github.com/chw3k5/mypysql/internal/ir"
)

// identifierPattern matches identifiers that need no escaping.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationResult lists every structural problem found in a query.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems describes each violation, in traversal order.
	Problems []string
}

// Err returns nil for a valid result, or an error listing the first problem
// and the total count.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	if len(r.Problems) == 1 {
		return fmt.Errorf("invalid query: %s", r.Problems[0])
	}
	return fmt.Errorf("invalid query: %s (and %d more)", r.Problems[0], len(r.Problems)-1)
}

// Validate checks that a Select can be rendered safely.
//
// Rules:
//  1. At least one output column, and output names are unique identifiers
//  2. Table names and aliases are identifiers; aliases are unique
//  3. Every qualified column reference names a declared alias
//  4. Comparators are on the allow-list
//  5. Chain parentheses balance and never close more than they opened
//  6. ORDER BY is present
//
// Validate is a pure function with no side effects.
func Validate(sel *Select) ValidationResult {
	v := &validator{aliases: map[string]bool{}}
	v.validateSelect(sel)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
	aliases  map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) identifier(kind, name string) {
	if !IsIdentifier(name) {
		v.addProblem("%s %q is not a valid identifier", kind, name)
	}
}

func (v *validator) validateSelect(sel *Select) {
	if sel == nil {
		v.addProblem("nil select")
		return
	}

	// Declare aliases before checking references.
	v.declare(sel.From)
	for _, j := range sel.Joins {
		v.declare(j.Source)
	}

	if len(sel.Columns) == 0 {
		v.addProblem("select has no output columns")
	}
	seen := map[string]bool{}
	for _, c := range sel.Columns {
		v.identifier("output name", c.Name)
		if seen[c.Name] {
			v.addProblem("duplicate output name %q", c.Name)
		}
		seen[c.Name] = true
		v.validateExpr(c.Expr)
	}

	for i, j := range sel.Joins {
		if j.Kind != JoinInner && j.Kind != JoinLeft {
			v.addProblem("join %d has unknown kind %q", i, j.Kind)
		}
		if j.On == nil {
			v.addProblem("join %d has no ON predicate", i)
			continue
		}
		v.validatePredicate(j.On)
	}

	if sel.Where != nil {
		v.validatePredicate(sel.Where)
	}

	if len(sel.OrderBy) == 0 {
		v.addProblem("select has no ORDER BY")
	}
	for _, e := range sel.OrderBy {
		v.validateExpr(e)
	}
}

func (v *validator) declare(src Source) {
	switch s := src.(type) {
	case Table:
		v.identifier("table", s.Name)
		v.alias(s.Alias)
	case Staged:
		v.alias(s.Alias)
	case nil:
		v.addProblem("missing source")
	default:
		v.addProblem("unknown source type: %T", src)
	}
}

func (v *validator) alias(a string) {
	v.identifier("alias", a)
	if v.aliases[a] {
		v.addProblem("duplicate alias %q", a)
	}
	v.aliases[a] = true
}

func (v *validator) validateExpr(e Expr) {
	switch expr := e.(type) {
	case Column:
		v.identifier("column", expr.Name)
		if expr.Table != "" && !v.aliases[expr.Table] {
			v.addProblem("column %s.%s references undeclared alias", expr.Table, expr.Name)
		}
	case Literal, Null:
	case nil:
		v.addProblem("missing expression")
	default:
		v.addProblem("unknown expression type: %T", e)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Compare:
		v.validateComparison(pred.Left, pred.Op, pred.Right)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Chain:
		v.validateChain(pred)
	case nil:
		v.addProblem("missing predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateComparison(left Expr, op string, right Expr) {
	if !ir.IsComparator(op) {
		v.addProblem("comparator %q is not allowed", op)
	}
	v.validateExpr(left)
	v.validateExpr(right)
}

func (v *validator) validateChain(c Chain) {
	depth := 0
	for i, link := range c.Links {
		if i > 0 && link.Logic != ir.LogicAnd && link.Logic != ir.LogicOr {
			v.addProblem("condition %d has unknown logic prefix %q", i+1, link.Logic)
		}
		if link.OpenParens < 0 || link.CloseParens < 0 {
			v.addProblem("condition %d has a negative parenthesis count", i+1)
		}
		v.validateComparison(link.Left, link.Op, link.Right)
		depth += link.OpenParens - link.CloseParens
		if depth < 0 {
			v.addProblem("condition %d closes a parenthesis that was never opened", i+1)
			depth = 0
		}
	}
	if depth != 0 {
		v.addProblem("%d unclosed parenthesis in condition chain", depth)
	}
}

// IsIdentifier reports whether name can be rendered as an identifier without
// escaping. Keywords match; querysql quotes them.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
