package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/seethroughlab/familliar-sub003/internal/models"
)

// OfflineIndex is the single facade over the tracks and files tables.
//
// It satisfies the scheduler's availability interface, the engine's track
// cacher, and the transfer client's download recorder, so one value wires
// the whole persistence side of a download session. Duplicate writes are
// silently ignored (UNIQUE constraint violations), which makes every
// method safe to retry.
type OfflineIndex struct {
	tracks *TrackRepository
	files  *FileRepository
}

// OfflineEntry joins one cached file with its track metadata for
// library listings and exports.
type OfflineEntry struct {
	Track        models.Track `json:"track"`
	Path         string       `json:"path"`
	Bytes        int64        `json:"bytes"`
	DownloadedAt string       `json:"downloaded_at,omitempty"`
}

// NewOfflineIndex creates an OfflineIndex over both repositories.
func NewOfflineIndex(tracks *TrackRepository, files *FileRepository) *OfflineIndex {
	return &OfflineIndex{tracks: tracks, files: files}
}

// CachedResourceIDs returns the track ids already present in the
// offline library.
func (i *OfflineIndex) CachedResourceIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return i.files.CachedTrackIDs()
}

// CacheTrack stores track metadata from a collection export.
// Returns nil if the track is already cached (deduplication).
// Only returns errors for actual failures (not constraint violations).
func (i *OfflineIndex) CacheTrack(track models.Track) error {
	existing, err := i.tracks.GetByTrackID(track.ID)
	if err == nil && existing != nil {
		return nil
	}

	persisted := models.NewPersistedTrack(0, track)

	if err := i.tracks.Create(persisted); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// RecordDownload marks a track's audio as present on disk. Recording a
// track that is already cached is a no-op.
func (i *OfflineIndex) RecordDownload(trackID, path string, bytes int64) error {
	existing, err := i.files.GetByTrackID(trackID)
	if err == nil && existing != nil {
		return nil
	}

	file := models.NewLocalFile(0, trackID, path, bytes)

	if err := i.files.Create(file); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to record download: %w", err)
	}

	return nil
}

// TrackInfo returns cached metadata for a track, used by the tagger
// after a download lands.
func (i *OfflineIndex) TrackInfo(trackID string) (*models.PersistedTrack, error) {
	return i.tracks.GetByTrackID(trackID)
}

// Entries joins every cached file with its track metadata, in download
// order. Files whose metadata was never cached still appear, with only
// the track id filled in.
func (i *OfflineIndex) Entries() ([]OfflineEntry, error) {
	files, err := i.files.List(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	entries := make([]OfflineEntry, 0, len(files))
	for _, file := range files {
		entry := OfflineEntry{
			Track:        models.Track{ID: file.TrackID()},
			Path:         file.Path(),
			Bytes:        file.Bytes(),
			DownloadedAt: file.DownloadedAt().Format("2006-01-02 15:04:05"),
		}
		if track, err := i.tracks.GetByTrackID(file.TrackID()); err == nil {
			entry.Track = track.DTO()
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
