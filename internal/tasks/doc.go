// Package tasks queues library collections for offline download.
//
// # Core Operations
//
// [DownloadEngine] exposes one operation per collection shape:
//
//  1. [DownloadEngine.QueuePlaylist] : playlist by id
//  2. [DownloadEngine.QueueAlbum] : album by id
//  3. [DownloadEngine.QueueLiked] : the account's liked songs
//
// Each resolves the collection through [services.Service], upserts its
// track metadata into the offline index, and submits the ordered track
// list to the download registry. Job ids are deterministic
// (playlist:<id>, album:<id>, liked) so resubmitting a collection while
// its job is live returns the existing record instead of stacking a
// duplicate.
//
// # Metadata Caching
//
// Track metadata is cached before submission via the optional [Index]
// so the transfer layer can tag downloaded files without further proxy
// calls. Cache failures are logged and skipped; a flaky row never
// blocks the collection.
//
// # Session Summaries
//
// [DownloadEngine.Summarize] folds a finished job snapshot into a
// [SessionSummary] (requested / cached / downloaded / failed counts)
// for manifests and CLI reporting. Progress during the run itself is
// observed through the registry's event stream, not through this
// package.
package tasks
