// Package web implements an HTMX-based dashboard mirroring the TUI download monitor.
//
// # HTMX Dashboard Implementation Plan
//
// # Architecture
//
// The dashboard layers server-side rendered pages over the JSON API that
// internal/server already exposes, using HTMX for dynamic updates. Each page
// corresponds to a template and handler:
//
//  1. Job Dashboard: Server-rendered job table, live-updated from the event stream
//  2. Job Detail: HTMX partial swap showing per-item results + cancel button
//  3. Submit Form: Collection kind/id form with hx-post to the API
//  4. Library Browser: Offline index table with export links
//
// Core Components
//
//   - Page Server: net/http handlers with html/template rendering, mounted
//     beside the existing API routes on the same server.Router
//   - Registry Integration: Reads through the same downloads.Registry and
//     repositories.OfflineIndex the JSON API serves
//   - SSE Consumer: The job table subscribes to GET /api/downloads/events
//     and swaps rows as "updated"/"removed" frames arrive
//
// Routes
//
//	GET    /                    → Job dashboard (table + submit form)
//	GET    /jobs/{id}           → HTMX partial: job detail with item lists
//	POST   /jobs                → Submit form target; proxies POST /api/downloads
//	DELETE /jobs/{id}           → Cancel button target; proxies the API delete
//	GET    /library             → Offline library table
//	GET    /library/export.csv  → formatter CSV download
//
// Templates
//
//   - base.html: Layout with navigation and link status
//   - jobs.html: Job table with sse-swap rows keyed by job ID
//   - job.html: Partial template for one job's completed/failed items
//   - library.html: Track table with size and path columns
//
// # State Management
//
// The dashboard holds no state of its own. Job records live in the registry
// until their grace window sweeps them; a swept job's row is removed by the
// "removed" SSE frame. Page reloads rebuild the table from GET /api/downloads,
// which replays the same snapshot the event stream starts from.
//
// # Progress Streaming
//
// The job table consumes the existing SSE endpoint directly:
//  1. Page load renders the current job list server-side
//  2. hx-ext="sse" connects to /api/downloads/events
//  3. "updated" frames swap the matching row (or append a new one)
//  4. "removed" frames delete the row
//  5. No dashboard-specific stream handler is needed
//
// Dependencies
//
//   - html/template: Server-side rendering
//   - net/http: Page handlers; SSE comes from internal/server
//   - internal/formatter: CSV/Markdown export endpoints
//
// Implementation Tasks
//
//  1. Page handler registration on the shared server.Router
//  2. Template structure with HTMX + sse extension includes
//  3. Dashboard handler rendering registry.List()
//  4. Job detail partial with completed/failed item breakdown
//  5. Submit form handler validating kind before queueing
//  6. Cancel button wiring to the API delete route
//  7. Library table handler over the offline index
//  8. Export endpoints streaming formatter output
//  9. Error partials for 404/400 API responses
//
// # Testing Strategy
//
// Use httptest:
//   - Seed a downloads.Registry with jobs in each status
//   - Validate HTMX headers and swapped fragment structure
//   - Test that row IDs match the SSE frame keys
package web
