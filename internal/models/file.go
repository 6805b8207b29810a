package models

import (
	"fmt"
	"time"
)

// LocalFile is the database-backed record of one audio file in the
// offline library. Its presence is what marks a track as cached.
type LocalFile struct {
	id           string
	sequence     int
	trackID      string
	path         string
	bytes        int64
	downloadedAt time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewLocalFile creates a LocalFile record for a freshly written download.
// The row id is assigned by the repository on insert.
func NewLocalFile(sequence int, trackID, path string, bytes int64) *LocalFile {
	now := time.Now()
	return &LocalFile{
		sequence:     sequence,
		trackID:      trackID,
		path:         path,
		bytes:        bytes,
		downloadedAt: now,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (f *LocalFile) ID() string { return f.id }

func (f *LocalFile) Sequence() int { return f.sequence }

func (f *LocalFile) TrackID() string { return f.trackID }

func (f *LocalFile) Path() string { return f.path }

func (f *LocalFile) Bytes() int64 { return f.bytes }

func (f *LocalFile) DownloadedAt() time.Time { return f.downloadedAt }

func (f *LocalFile) CreatedAt() time.Time { return f.createdAt }

func (f *LocalFile) UpdatedAt() time.Time { return f.updatedAt }

func (f *LocalFile) DeletedAt() *time.Time { return f.deletedAt }

func (f *LocalFile) SetID(id string) { f.id = id }

func (f *LocalFile) SetUpdatedAt(ts time.Time) { f.updatedAt = ts }

func (f *LocalFile) SetDeletedAt(ts *time.Time) { f.deletedAt = ts }

func (f *LocalFile) SetDownloadedAt(ts time.Time) { f.downloadedAt = ts }

func (f *LocalFile) SetBytes(bytes int64) { f.bytes = bytes }

func (f *LocalFile) SetPath(path string) { f.path = path }

// Validate checks required fields before persistence.
func (f *LocalFile) Validate() error {
	if f.id == "" {
		return fmt.Errorf("file id is required")
	}
	if f.trackID == "" {
		return fmt.Errorf("proxy track id is required")
	}
	if f.path == "" {
		return fmt.Errorf("file path is required")
	}
	if f.bytes < 0 {
		return fmt.Errorf("file size must not be negative")
	}
	return nil
}
