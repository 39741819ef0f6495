// Package engine answers query strings against the fact schema.
//
// A call runs four steps in order:
//  1. parse the query string (internal/parser)
//  2. plan the joins and conditions (internal/planner)
//  3. execute one or two stages on the backend
//  4. fold the flat rows into one record per key (internal/fold)
//
// Steps 1 and 2 fail fast: UNKNOWN_ATTRIBUTE, MALFORMED_CONDITION,
// UNSUPPORTED_QUERY_TYPE and INVALID_QUERY_SHAPE are returned before any
// backend access. Backend errors are returned as BACKEND_EXECUTION with the
// driver error preserved; there are no retries and no partial results.
//
// STAGING:
//
// When a condition targets an attribute that was not requested, the first
// stage is materialized and a second stage filters it. The engine's Session
// names each staged result from a monotonic counter and records it until it
// is dropped: right after the second stage by default, or on Close when
// WithKeepStaging is set.
//
// CONCURRENCY:
//
// Calls on one Engine are serialized. Use one Engine per backend connection.
package engine
