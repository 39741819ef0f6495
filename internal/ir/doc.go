// Package ir provides the data model shared by every stage of the query engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures IR remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Scalars are the sealed Value variants (Null, Bool, Int, Float, Text),
//     resolved once and never re-inspected at render time
//   - Condition keeps the caller's parenthesis counts verbatim
//   - Every error returned to callers is a *QueryError with a stable code
//   - Plan identity is a domain-separated SHA-256 over canonical JSON
package ir
