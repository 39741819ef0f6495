// Package queryir provides the structured query representation that the
// planner builds and the SQL backend renders.
//
// The planner never concatenates query text. It assembles a Select out of
// sources, joins, output columns and predicates, and querysql renders that
// tree in one place with literals bound as parameters.
//
// ARCHITECTURE:
//
//	[parsed query] → [planner] → [Query IR] → [querysql] → SQL + args
//
// SEALED INTERFACES:
//
// Source, Expr and Predicate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so renderers can use
// exhaustive type switches:
//
//	switch src := sel.From.(type) {
//	case Table:
//	    // a schema table
//	case Staged:
//	    // the materialized first stage
//	}
//
// CONDITION CHAINS:
//
// Caller-supplied conditions are not a tree. They are an ordered list of
// links, each carrying its own logic prefix and parenthesis counts. Chain
// keeps that list verbatim so the rendered WHERE clause nests exactly as the
// caller wrote it. Validate rejects chains whose parentheses do not balance.
//
// IDENTIFIERS:
//
// Table names, aliases, column names and output names are rendered without
// escaping, so Validate requires every identifier to match
// [A-Za-z_][A-Za-z0-9_]*. querysql double-quotes the ones that are SQLite
// keywords. Values never appear in identifiers; they travel as Literal
// expressions.
package queryir
