// Package server exposes the download scheduler over HTTP for daemon mode and account linking.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recover] cover the daemon's baseline: one structured log line per request, panics turned into 500s.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally, so
// route patterns may carry method prefixes and wildcards
// ("GET /api/downloads/{id}").
//
// # Downloads API
//
// [DownloadsHandler] serves the scheduler:
//
//	GET    /api/downloads        → all jobs, submission order
//	POST   /api/downloads        → {kind, id} submitted through the engine, answers 202 + job
//	GET    /api/downloads/active → the job currently downloading, 404 when idle
//	GET    /api/downloads/{id}   → one job snapshot
//	DELETE /api/downloads/{id}   → cancel
//	GET    /api/downloads/events → Server-Sent Events stream
//	GET    /api/library          → offline index contents
//	GET    /health               → liveness probe
//
// Known error kinds map onto statuses (job or collection not found →
// 404, bad input → 400, proxy trouble → 502, registry closed → 503).
//
// # Event Stream
//
// The events endpoint bridges the registry's subscription channel onto
// an SSE response. The current job table is replayed first so a late
// subscriber sees every live job, then updates stream until the client
// disconnects. Each frame carries the event type (updated, removed) and
// the full job snapshot as JSON.
//
// # Server Lifecycle
//
// [Server.Run] serves until its context is cancelled, then drains
// connections for up to five seconds before returning.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the account-link callback: it validates the
// state parameter (CSRF protection), exchanges the authorization code
// for a token, and sends the result through a channel. It only
// processes one callback to prevent replay attacks. The setup command
// starts a temporary server on the configured redirect address, waits
// for the result, and shuts down.
package server
