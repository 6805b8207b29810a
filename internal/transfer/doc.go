// Package transfer moves track audio from the library proxy onto disk.
//
// [Client] implements the downloads.Downloader contract: fetch one track,
// report percent progress, persist the result. Audio is streamed to a .part
// temp file and renamed into place so interrupted transfers never leave a
// half-written file at the destination. Requests are paced with a rate
// limiter and transient failures (network errors, 5xx) are retried with a
// growing cooldown.
//
// A destination file that already exists is treated as a completed download:
// the client reports full progress and re-records it in the offline index
// without touching the network. This makes re-running a collection cheap
// when the index and the filesystem have drifted apart.
//
// [ID3Tagger] optionally writes title/artist/album frames after a fetch,
// using the metadata cached when the collection was exported.
package transfer
