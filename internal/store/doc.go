// Package store provides the per-computer value store: a mutable table
// mapping every input and value name of one computer to its current state.
//
// Inputs are Unset until their first assignment, then Set. Values are
// Pending until every dependency is available, Fresh once computed, or
// Error when their compute function failed (or a dependency did). Only
// frame commits mutate a store; nothing else writes to it.
//
// The store is exclusively owned by its executor and does no locking of
// its own.
package store
