package transfer

import (
	"fmt"

	"github.com/bogem/id3v2"
	"github.com/seethroughlab/familliar-sub003/internal/models"
)

// TagSource provides cached metadata for a downloaded track. Implemented by
// repositories.OfflineIndex.
type TagSource interface {
	TrackInfo(trackID string) (*models.PersistedTrack, error)
}

// ID3Tagger writes title, artist, and album frames onto downloaded MP3
// files from the metadata cached at export time.
type ID3Tagger struct {
	source TagSource
}

// NewID3Tagger creates a tagger reading metadata from source.
func NewID3Tagger(source TagSource) *ID3Tagger {
	return &ID3Tagger{source: source}
}

// Tag writes ID3v2 frames for the track onto the file at path. Tracks with
// no cached metadata are left untagged and reported as an error so the
// caller can log it.
func (t *ID3Tagger) Tag(path, trackID string) error {
	info, err := t.source.TrackInfo(trackID)
	if err != nil {
		return fmt.Errorf("no cached metadata for %s: %w", trackID, err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tags: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(info.Title())
	tag.SetArtist(info.Artist())
	tag.SetAlbum(info.Album())

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	return nil
}
