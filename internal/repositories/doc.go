// Package repositories implements SQLite persistence for play history.
//
// Key Implementations:
//   - [HistoryRepository] : one row per started track, newest first on read
//
// Sequence numbers provide stable, human-readable ordering (e.g., play #42) independent of UUIDs and timestamps,
// which can collide when two tracks start within the same clock tick.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
