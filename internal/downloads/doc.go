// Package downloads implements the bulk download scheduler for the
// offline library.
//
// A [Registry] holds the in-memory table of [Job] records. Jobs are
// submitted with a caller-supplied id (the dedupe key), advance from
// queued through downloading to exactly one terminal state, and vanish
// on their own a few seconds after finishing. Every read hands out a
// point-in-time snapshot; every write replaces the whole record under
// the registry lock, so observers never see a half-updated job.
//
// A [Dispatcher] drains the queue one job at a time. Per job it asks
// [Availability] what the library already holds, skips those items, and
// feeds the rest to a [Downloader] one by one. Item failures are
// recorded and the run keeps going; only a run with zero successful
// transfers is marked failed. Cancellation is cooperative: [Registry.Cancel]
// flips the job terminal immediately and the worker notices at the next
// item boundary, letting the in-flight transfer finish.
//
// [Registry.Subscribe] exposes the change feed that the terminal UI and
// the daemon's event stream consume.
package downloads
