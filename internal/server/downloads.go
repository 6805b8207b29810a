package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/repositories"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// Queuer is the slice of the download engine the HTTP surface needs.
type Queuer interface {
	QueuePlaylist(ctx context.Context, playlistID string) (*downloads.Job, error)
	QueueAlbum(ctx context.Context, albumID string) (*downloads.Job, error)
	QueueLiked(ctx context.Context) (*downloads.Job, error)
}

// Library lists the offline index for the library endpoint.
type Library interface {
	Entries() ([]repositories.OfflineEntry, error)
}

// DownloadsHandler serves the scheduler's REST endpoints and the
// registry event stream. Implements the Handler interface for
// registration with a Router.
type DownloadsHandler struct {
	registry *downloads.Registry
	queuer   Queuer
	library  Library
	logger   *log.Logger
}

// NewDownloadsHandler creates a DownloadsHandler. The library may be
// nil, in which case the library endpoint serves an empty list.
func NewDownloadsHandler(registry *downloads.Registry, queuer Queuer, library Library, logger *log.Logger) *DownloadsHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DownloadsHandler{
		registry: registry,
		queuer:   queuer,
		library:  library,
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *DownloadsHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /api/library",
		"GET /api/downloads",
		"POST /api/downloads",
		"GET /api/downloads/active",
		"GET /api/downloads/events",
		"GET /api/downloads/{id}",
		"DELETE /api/downloads/{id}",
	}
}

// ServeHTTP dispatches to the endpoint handlers. Method filtering and
// the {id} wildcard are handled by the router's mux patterns.
func (h *DownloadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		h.handleHealth(w, r)
	case r.URL.Path == "/api/library":
		h.handleLibrary(w, r)
	case r.URL.Path == "/api/downloads" && r.Method == http.MethodPost:
		h.handleSubmit(w, r)
	case r.URL.Path == "/api/downloads":
		h.handleList(w, r)
	case r.URL.Path == "/api/downloads/active":
		h.handleActive(w, r)
	case r.URL.Path == "/api/downloads/events":
		h.handleEvents(w, r)
	case r.Method == http.MethodDelete && r.PathValue("id") != "":
		h.handleCancel(w, r)
	case r.PathValue("id") != "":
		h.handleGet(w, r)
	default:
		http.NotFound(w, r)
	}
}

// submitRequest is the POST /api/downloads payload: a collection kind
// plus its id (ignored for liked).
type submitRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// libraryEntry is the wire shape of one offline index row.
type libraryEntry struct {
	Track        models.Track `json:"track"`
	Path         string       `json:"path"`
	Bytes        int64        `json:"bytes"`
	DownloadedAt string       `json:"downloaded_at,omitempty"`
}

func (h *DownloadsHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DownloadsHandler) handleList(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, h.registry.List())
}

func (h *DownloadsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: malformed request body: %v", shared.ErrInvalidInput, err))
		return
	}

	kind, err := downloads.ParseKind(req.Kind)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var job *downloads.Job
	switch kind {
	case downloads.KindPlaylist:
		job, err = h.queuer.QueuePlaylist(r.Context(), req.ID)
	case downloads.KindAlbum:
		job, err = h.queuer.QueueAlbum(r.Context(), req.ID)
	case downloads.KindLiked:
		job, err = h.queuer.QueueLiked(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respond(w, http.StatusAccepted, job)
}

func (h *DownloadsHandler) handleActive(w http.ResponseWriter, _ *http.Request) {
	job, ok := h.registry.GetActive()
	if !ok {
		h.writeError(w, fmt.Errorf("%w: no active download", shared.ErrJobNotFound))
		return
	}
	h.respond(w, http.StatusOK, job)
}

func (h *DownloadsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := h.registry.Get(id)
	if !ok {
		h.writeError(w, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id))
		return
	}
	h.respond(w, http.StatusOK, job)
}

func (h *DownloadsHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	job, err := h.registry.Cancel(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, job)
}

// handleEvents streams registry events as Server-Sent Events. The
// current table is replayed first so late subscribers see every live
// job, then updates flow until the client disconnects.
func (h *DownloadsHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.registry.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, job := range h.registry.List() {
		if err := writeEvent(w, downloads.EventUpdated.String(), job); err != nil {
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, ev.Type.String(), ev.Job); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *DownloadsHandler) handleLibrary(w http.ResponseWriter, _ *http.Request) {
	out := []libraryEntry{}
	if h.library != nil {
		entries, err := h.library.Entries()
		if err != nil {
			h.writeError(w, err)
			return
		}
		for _, e := range entries {
			out = append(out, libraryEntry{
				Track:        e.Track,
				Path:         e.Path,
				Bytes:        e.Bytes,
				DownloadedAt: e.DownloadedAt,
			})
		}
	}
	h.respond(w, http.StatusOK, out)
}

func (h *DownloadsHandler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps known error kinds onto HTTP statuses and sends a
// JSON error body.
func (h *DownloadsHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrJobNotFound),
		errors.Is(err, shared.ErrCollectionNotFound),
		errors.Is(err, shared.ErrTrackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrAuthFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, shared.ErrRegistryClosed):
		status = http.StatusServiceUnavailable
	}
	h.respond(w, status, map[string]string{"error": err.Error()})
}

// writeEvent encodes one SSE frame: an event name line followed by the
// job snapshot as a JSON data line.
func writeEvent(w io.Writer, event string, job *downloads.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
