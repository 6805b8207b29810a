// Package repositories implements SQLite persistence for the offline library.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TrackRepository] : Track metadata cached from collection exports
//   - [FileRepository] : Downloaded audio files with on-disk paths and sizes
//   - [OfflineIndex] : Facade joining both into the availability and tagging views
//
// Sequence numbers provide stable, human-readable ordering (e.g., track #42, file #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
