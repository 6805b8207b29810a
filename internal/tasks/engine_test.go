package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

type mockService struct {
	exports    map[string]*models.CollectionExport
	liked      *models.CollectionExport
	exportErr  error
	likedErr   error
	exportKind string // last export method invoked
}

func (m *mockService) Name() string { return "mock" }

func (m *mockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *mockService) GetPlaylists(ctx context.Context) ([]models.Collection, error) {
	return nil, nil
}

func (m *mockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Collection, error) {
	if export, ok := m.exports[playlistID]; ok {
		return &export.Collection, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.CollectionExport, error) {
	m.exportKind = "playlist"
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	if export, ok := m.exports[playlistID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, playlistID)
}

func (m *mockService) ExportAlbum(ctx context.Context, albumID string) (*models.CollectionExport, error) {
	m.exportKind = "album"
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	if export, ok := m.exports[albumID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, albumID)
}

func (m *mockService) ExportLikedSongs(ctx context.Context) (*models.CollectionExport, error) {
	m.exportKind = "liked"
	if m.likedErr != nil {
		return nil, m.likedErr
	}
	return m.liked, nil
}

func (m *mockService) StreamURL(trackID string) string {
	return "http://localhost:8666/api/tracks/" + trackID + "/stream"
}

type mockIndex struct {
	cached    []models.Track
	available []string
	cacheErr  error
	availErr  error
}

func (m *mockIndex) CacheTrack(track models.Track) error {
	if m.cacheErr != nil {
		return m.cacheErr
	}
	m.cached = append(m.cached, track)
	return nil
}

func (m *mockIndex) CachedResourceIDs(ctx context.Context) ([]string, error) {
	if m.availErr != nil {
		return nil, m.availErr
	}
	return m.available, nil
}

type mockQueue struct {
	submitted []downloads.SubmitRequest
	submitErr error
}

func (m *mockQueue) Submit(req downloads.SubmitRequest) (*downloads.Job, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.submitted = append(m.submitted, req)
	return &downloads.Job{
		ID:          req.ID,
		Kind:        req.Kind,
		Name:        req.Name,
		ResourceIDs: append([]string(nil), req.ResourceIDs...),
	}, nil
}

func testExport(id, name string, trackIDs ...string) *models.CollectionExport {
	tracks := make([]models.Track, len(trackIDs))
	for i, trackID := range trackIDs {
		tracks[i] = models.Track{ID: trackID, Title: "Track " + trackID, Artist: "Artist"}
	}
	return &models.CollectionExport{
		Collection: models.Collection{ID: id, Name: name, TrackCount: len(trackIDs)},
		Tracks:     tracks,
	}
}

func newTestEngine(service *mockService, index *mockIndex, queue *mockQueue) *DownloadEngine {
	var idx Index
	if index != nil {
		idx = index
	}
	return NewDownloadEngine(service, idx, queue, shared.NewLogger(io.Discard))
}

func TestDownloadEngine_QueuePlaylist(t *testing.T) {
	t.Run("caches metadata and submits ordered ids", func(t *testing.T) {
		service := &mockService{
			exports: map[string]*models.CollectionExport{
				"pl_1": testExport("pl_1", "Morning Mix", "t1", "t2", "t3"),
			},
		}
		index := &mockIndex{}
		queue := &mockQueue{}
		engine := newTestEngine(service, index, queue)

		job, err := engine.QueuePlaylist(context.Background(), "pl_1")
		if err != nil {
			t.Fatalf("QueuePlaylist() error = %v", err)
		}

		if job.ID != "playlist:pl_1" {
			t.Errorf("job ID = %q, want playlist:pl_1", job.ID)
		}
		if job.Kind != downloads.KindPlaylist {
			t.Errorf("job kind = %v, want playlist", job.Kind)
		}
		if job.Name != "Morning Mix" {
			t.Errorf("job name = %q, want Morning Mix", job.Name)
		}

		if len(queue.submitted) != 1 {
			t.Fatalf("expected 1 submission, got %d", len(queue.submitted))
		}
		req := queue.submitted[0]
		if len(req.ResourceIDs) != 3 || req.ResourceIDs[0] != "t1" || req.ResourceIDs[2] != "t3" {
			t.Errorf("submitted ids = %v, want [t1 t2 t3]", req.ResourceIDs)
		}

		if len(index.cached) != 3 {
			t.Errorf("expected 3 cached tracks, got %d", len(index.cached))
		}
	})

	t.Run("rejects empty id", func(t *testing.T) {
		engine := newTestEngine(&mockService{}, nil, &mockQueue{})

		_, err := engine.QueuePlaylist(context.Background(), "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("propagates resolve failure", func(t *testing.T) {
		service := &mockService{exports: map[string]*models.CollectionExport{}}
		engine := newTestEngine(service, nil, &mockQueue{})

		_, err := engine.QueuePlaylist(context.Background(), "pl_missing")
		if !errors.Is(err, shared.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})

	t.Run("cache failure does not block submission", func(t *testing.T) {
		service := &mockService{
			exports: map[string]*models.CollectionExport{
				"pl_1": testExport("pl_1", "Morning Mix", "t1", "t2"),
			},
		}
		index := &mockIndex{cacheErr: errors.New("disk full")}
		queue := &mockQueue{}
		engine := newTestEngine(service, index, queue)

		job, err := engine.QueuePlaylist(context.Background(), "pl_1")
		if err != nil {
			t.Fatalf("QueuePlaylist() error = %v", err)
		}
		if len(job.ResourceIDs) != 2 {
			t.Errorf("expected full track list despite cache errors, got %v", job.ResourceIDs)
		}
	})

	t.Run("propagates submit failure", func(t *testing.T) {
		service := &mockService{
			exports: map[string]*models.CollectionExport{
				"pl_1": testExport("pl_1", "Morning Mix", "t1"),
			},
		}
		queue := &mockQueue{submitErr: shared.ErrRegistryClosed}
		engine := newTestEngine(service, nil, queue)

		_, err := engine.QueuePlaylist(context.Background(), "pl_1")
		if !errors.Is(err, shared.ErrRegistryClosed) {
			t.Errorf("expected ErrRegistryClosed, got %v", err)
		}
	})
}

func TestDownloadEngine_QueueAlbum(t *testing.T) {
	service := &mockService{
		exports: map[string]*models.CollectionExport{
			"al_9": testExport("al_9", "Glow", "t1", "t2"),
		},
	}
	queue := &mockQueue{}
	engine := newTestEngine(service, &mockIndex{}, queue)

	job, err := engine.QueueAlbum(context.Background(), "al_9")
	if err != nil {
		t.Fatalf("QueueAlbum() error = %v", err)
	}

	if job.ID != "album:al_9" {
		t.Errorf("job ID = %q, want album:al_9", job.ID)
	}
	if job.Kind != downloads.KindAlbum {
		t.Errorf("job kind = %v, want album", job.Kind)
	}
	if service.exportKind != "album" {
		t.Errorf("expected album export, service saw %q", service.exportKind)
	}
}

func TestDownloadEngine_QueueLiked(t *testing.T) {
	t.Run("uses the fixed liked job id", func(t *testing.T) {
		service := &mockService{liked: testExport("liked", "Liked Songs", "t1", "t2", "t3")}
		queue := &mockQueue{}
		engine := newTestEngine(service, &mockIndex{}, queue)

		job, err := engine.QueueLiked(context.Background())
		if err != nil {
			t.Fatalf("QueueLiked() error = %v", err)
		}

		if job.ID != LikedJobID {
			t.Errorf("job ID = %q, want %q", job.ID, LikedJobID)
		}
		if job.Kind != downloads.KindLiked {
			t.Errorf("job kind = %v, want liked", job.Kind)
		}
	})

	t.Run("propagates resolve failure", func(t *testing.T) {
		service := &mockService{likedErr: errors.New("proxy down")}
		engine := newTestEngine(service, nil, &mockQueue{})

		_, err := engine.QueueLiked(context.Background())
		if err == nil || !strings.Contains(err.Error(), "proxy down") {
			t.Errorf("expected wrapped resolve error, got %v", err)
		}
	})
}

func TestDownloadEngine_ServiceGuards(t *testing.T) {
	t.Run("nil service", func(t *testing.T) {
		engine := NewDownloadEngine(nil, nil, &mockQueue{}, shared.NewLogger(io.Discard))

		_, err := engine.QueuePlaylist(context.Background(), "pl_1")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("nil queue", func(t *testing.T) {
		engine := NewDownloadEngine(&mockService{}, nil, nil, shared.NewLogger(io.Discard))

		_, err := engine.QueueLiked(context.Background())
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestDownloadEngine_Summarize(t *testing.T) {
	t.Run("splits cached from downloaded", func(t *testing.T) {
		service := &mockService{
			exports: map[string]*models.CollectionExport{
				"pl_1": testExport("pl_1", "Morning Mix", "t1", "t2", "t3", "t4"),
			},
		}
		index := &mockIndex{available: []string{"t1", "t2", "unrelated"}}
		queue := &mockQueue{}
		engine := newTestEngine(service, index, queue)

		job, err := engine.QueuePlaylist(context.Background(), "pl_1")
		if err != nil {
			t.Fatalf("QueuePlaylist() error = %v", err)
		}

		// Simulate the dispatcher finishing the job: the two cached
		// items were seeded, one downloaded, one failed.
		job.Status = downloads.StatusCompleted
		job.CompletedIDs = []string{"t1", "t2", "t3"}
		job.FailedIDs = []string{"t4"}

		summary := engine.Summarize(job)
		if summary.Requested != 4 {
			t.Errorf("requested = %d, want 4", summary.Requested)
		}
		if summary.Cached != 2 {
			t.Errorf("cached = %d, want 2", summary.Cached)
		}
		if summary.Downloaded != 1 {
			t.Errorf("downloaded = %d, want 1", summary.Downloaded)
		}
		if summary.Failed != 1 {
			t.Errorf("failed = %d, want 1", summary.Failed)
		}
		if summary.Status != "completed" {
			t.Errorf("status = %q, want completed", summary.Status)
		}
	})

	t.Run("unknown job counts everything as downloaded", func(t *testing.T) {
		engine := newTestEngine(&mockService{}, nil, &mockQueue{})

		job := &downloads.Job{
			ID:           "playlist:other",
			Name:         "Elsewhere",
			ResourceIDs:  []string{"t1", "t2"},
			CompletedIDs: []string{"t1", "t2"},
			FailedIDs:    []string{},
			Status:       downloads.StatusCompleted,
		}

		summary := engine.Summarize(job)
		if summary.Cached != 0 || summary.Downloaded != 2 {
			t.Errorf("cached/downloaded = %d/%d, want 0/2", summary.Cached, summary.Downloaded)
		}
	})

	t.Run("reports pending items for cancelled jobs", func(t *testing.T) {
		engine := newTestEngine(&mockService{}, nil, &mockQueue{})

		job := &downloads.Job{
			ID:           "album:al_9",
			ResourceIDs:  []string{"t1", "t2", "t3", "t4", "t5"},
			CompletedIDs: []string{"t1", "t2"},
			FailedIDs:    []string{},
			Status:       downloads.StatusCancelled,
		}

		summary := engine.Summarize(job)
		if summary.Pending != 3 {
			t.Errorf("pending = %d, want 3", summary.Pending)
		}
		if summary.Status != "cancelled" {
			t.Errorf("status = %q, want cancelled", summary.Status)
		}
	})
}
