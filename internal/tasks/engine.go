package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// LikedJobID is the registry id for liked-songs jobs. Playlist and album
// jobs derive theirs from the collection id, so repeat submissions of
// the same collection collapse onto the live job.
const LikedJobID = "liked"

// PlaylistJobID returns the registry id for a playlist download.
func PlaylistJobID(playlistID string) string {
	return "playlist:" + playlistID
}

// AlbumJobID returns the registry id for an album download.
func AlbumJobID(albumID string) string {
	return "album:" + albumID
}

// Index is the slice of the offline index the engine uses: metadata
// upserts before a job is queued, and the availability set for session
// accounting.
type Index interface {
	CacheTrack(track models.Track) error
	CachedResourceIDs(ctx context.Context) ([]string, error)
}

// Queue is the registry surface the engine submits jobs to.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type Queue interface {
	Submit(req downloads.SubmitRequest) (*downloads.Job, error)
}

// SessionSummary describes the outcome of one download job for
// manifests and CLI reporting.
type SessionSummary struct {
	JobID      string    `json:"job_id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Requested  int       `json:"requested"`
	Cached     int       `json:"cached"`
	Downloaded int       `json:"downloaded"`
	Failed     int       `json:"failed"`
	Pending    int       `json:"pending,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// DownloadEngine resolves library collections through the proxy and
// queues them for download. It caches track metadata into the offline
// index before submitting, so the transfer layer can tag files without
// further proxy calls.
type DownloadEngine struct {
	service services.Service
	index   Index
	queue   Queue
	logger  *log.Logger

	mu       sync.Mutex
	cachedAt map[string]int // job id -> items already cached at queue time
}

// NewDownloadEngine creates a DownloadEngine. The index may be nil, in
// which case metadata caching and cached/downloaded accounting are
// skipped.
func NewDownloadEngine(service services.Service, index Index, queue Queue, logger *log.Logger) *DownloadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DownloadEngine{
		service:  service,
		index:    index,
		queue:    queue,
		logger:   logger,
		cachedAt: make(map[string]int),
	}
}

// QueuePlaylist resolves a playlist and submits it for download.
func (e *DownloadEngine) QueuePlaylist(ctx context.Context, playlistID string) (*downloads.Job, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	export, err := e.service.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist %s: %w", playlistID, err)
	}

	return e.queueExport(ctx, PlaylistJobID(playlistID), downloads.KindPlaylist, export)
}

// QueueAlbum resolves an album and submits it for download.
func (e *DownloadEngine) QueueAlbum(ctx context.Context, albumID string) (*downloads.Job, error) {
	if albumID == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	export, err := e.service.ExportAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve album %s: %w", albumID, err)
	}

	return e.queueExport(ctx, AlbumJobID(albumID), downloads.KindAlbum, export)
}

// QueueLiked resolves the liked-songs collection and submits it for
// download.
func (e *DownloadEngine) QueueLiked(ctx context.Context) (*downloads.Job, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	export, err := e.service.ExportLikedSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve liked songs: %w", err)
	}

	return e.queueExport(ctx, LikedJobID, downloads.KindLiked, export)
}

// Summarize converts a job snapshot into a session summary. The
// cached/downloaded split uses the availability set captured when the
// engine queued the job; jobs queued elsewhere count every completed
// item as downloaded.
func (e *DownloadEngine) Summarize(job *downloads.Job) *SessionSummary {
	e.mu.Lock()
	cachedAtQueue := e.cachedAt[job.ID]
	e.mu.Unlock()

	cached := cachedAtQueue
	if cached > len(job.CompletedIDs) {
		cached = len(job.CompletedIDs)
	}

	return &SessionSummary{
		JobID:      job.ID,
		Kind:       job.Kind.String(),
		Name:       job.Name,
		Status:     job.Status.String(),
		Requested:  len(job.ResourceIDs),
		Cached:     cached,
		Downloaded: len(job.CompletedIDs) - cached,
		Failed:     len(job.FailedIDs),
		Pending:    job.Pending(),
		Error:      job.Err,
		StartedAt:  job.StartedAt,
	}
}

func (e *DownloadEngine) ready() error {
	if e.service == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if e.queue == nil {
		return fmt.Errorf("%w: download registry not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// queueExport caches the export's metadata and submits its track list.
// Caching failures are logged and skipped so a flaky index row never
// blocks the whole collection.
func (e *DownloadEngine) queueExport(ctx context.Context, jobID string, kind downloads.Kind, export *models.CollectionExport) (*downloads.Job, error) {
	if e.index != nil {
		for _, track := range export.Tracks {
			if err := e.index.CacheTrack(track); err != nil {
				e.logger.Warn("failed to cache track metadata", "track", track.ID, "error", err)
			}
		}
	}

	cachedCount := e.countCached(ctx, export)

	job, err := e.queue.Submit(downloads.SubmitRequest{
		ID:          jobID,
		Kind:        kind,
		Name:        export.Collection.Name,
		ResourceIDs: export.TrackIDs(),
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cachedAt[job.ID] = cachedCount
	e.mu.Unlock()

	e.logger.Info("collection queued",
		"job", job.ID,
		"name", export.Collection.Name,
		"tracks", len(export.Tracks),
		"cached", cachedCount)
	return job, nil
}

// countCached reports how many of the export's tracks the index already
// holds. Errors degrade to zero: the dispatcher performs its own
// authoritative availability check, this count only feeds summaries.
func (e *DownloadEngine) countCached(ctx context.Context, export *models.CollectionExport) int {
	if e.index == nil {
		return 0
	}

	ids, err := e.index.CachedResourceIDs(ctx)
	if err != nil {
		e.logger.Warn("failed to read offline index", "error", err)
		return 0
	}

	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		have[id] = true
	}

	count := 0
	for _, track := range export.Tracks {
		if have[track.ID] {
			count++
		}
	}
	return count
}
