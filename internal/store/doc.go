// Package store is the SQLite backend for the spectroscopy fact schema.
//
// The schema (schema.sql) holds:
//   - stars: entities keyed by spexodisks_handle
//   - spectra: one wide row per spectrum; its columns are spectrum attributes
//   - object_params_float / object_params_str: narrow fact tables, one row
//     per (entity, attribute type, measurement)
//   - handles: the entity/spectrum bridge view
//   - available_*_params: catalog views enumerating attribute names
//
// # Staging
//
// Second-stage queries read a materialized first stage. Materialize stores it
// as a TEMP table, which SQLite scopes to one connection, so the pool is
// limited to a single connection for the lifetime of the Store.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Both github.com/mattn/go-sqlite3 ("sqlite3") and modernc.org/sqlite
// ("sqlite") are registered; WithDriver selects one.
package store
