package models

import (
	"fmt"
	"time"
)

// PersistedTrack is the database-backed record of a track whose metadata
// has been cached from the library proxy. The proxy's track id is the
// natural key; the row id is generated at insert time.
type PersistedTrack struct {
	id        string
	sequence  int
	trackID   string
	title     string
	artist    string
	album     string
	duration  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedTrack creates a PersistedTrack from a proxy track DTO.
// The row id is assigned by the repository on insert.
func NewPersistedTrack(sequence int, dto Track) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{
		sequence:  sequence,
		trackID:   dto.ID,
		title:     dto.Title,
		artist:    dto.Artist,
		album:     dto.Album,
		duration:  dto.Duration,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *PersistedTrack) ID() string { return t.id }

func (t *PersistedTrack) Sequence() int { return t.sequence }

func (t *PersistedTrack) TrackID() string { return t.trackID }

func (t *PersistedTrack) Title() string { return t.title }

func (t *PersistedTrack) Artist() string { return t.artist }

func (t *PersistedTrack) Album() string { return t.album }

func (t *PersistedTrack) Duration() int { return t.duration }

func (t *PersistedTrack) CreatedAt() time.Time { return t.createdAt }

func (t *PersistedTrack) UpdatedAt() time.Time { return t.updatedAt }

func (t *PersistedTrack) DeletedAt() *time.Time { return t.deletedAt }

func (t *PersistedTrack) SetID(id string) { t.id = id }

func (t *PersistedTrack) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }

func (t *PersistedTrack) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

func (t *PersistedTrack) SetTitle(title string) { t.title = title }

func (t *PersistedTrack) SetArtist(artist string) { t.artist = artist }

func (t *PersistedTrack) SetAlbum(album string) { t.album = album }

func (t *PersistedTrack) SetDuration(duration int) { t.duration = duration }

// Validate checks required fields before persistence.
func (t *PersistedTrack) Validate() error {
	if t.id == "" {
		return fmt.Errorf("track id is required")
	}
	if t.trackID == "" {
		return fmt.Errorf("proxy track id is required")
	}
	if t.title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.duration < 0 {
		return fmt.Errorf("track duration must not be negative")
	}
	return nil
}

// DTO converts the persisted record back into the proxy-shaped Track.
func (t *PersistedTrack) DTO() Track {
	return Track{
		ID:       t.trackID,
		Title:    t.title,
		Artist:   t.artist,
		Album:    t.album,
		Duration: t.duration,
	}
}
