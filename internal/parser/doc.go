// Package parser turns query strings into ir.ParsedQuery values.
//
// Parsing is purely syntactic. Attribute names are normalized but not
// resolved; the planner resolves them against the catalog.
package parser
