// Package store persists shared entitlement and settings state in SQLite
// and exposes the change-notification channel between execution contexts.
//
// The daemon and the control surface open the same database file; no other
// shared resource exists between them. Every write replaces a whole logical
// record and bumps a per-scope revision counter inside the same transaction.
// Watcher polls those counters and emits typed change events so subscribers
// can re-derive downstream state from scratch instead of patching it.
//
// Treat this package as the single source of truth for persisted state
// shapes; schema changes go through schema.go.
package store
