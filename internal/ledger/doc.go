// Package ledger accumulates the human-readable outcome of a migration run.
//
// A Ledger is an append-only value: migrators return their own ledger and the
// orchestrator merges them in order before printing the summary once.
package ledger
