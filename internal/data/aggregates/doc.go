// Package aggregates owns transaction boundaries for invariant-critical writes.
//
// Aggregates compose the table-level repos from internal/data/repos, run every write of
// one operation inside a single transaction, and report outcomes through Hooks.
package aggregates
