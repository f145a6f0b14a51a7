// Package repositories implements SQLite persistence for reconciliation history.
//
// [RunRepository] stores one row per run and one row per playlist (or favorites category) result.
// History is audit data only: nothing in a reconciliation reads it back.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and timestamps.
// [NextSequence] draws them from "<table>_sequence" counter rows inside the inserting transaction.
package repositories
