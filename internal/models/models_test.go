package models

import (
	"testing"
	"time"
)

func TestPersistedTrack(t *testing.T) {
	dto := Track{
		ID:       "trk_001",
		Title:    "Night Drive",
		Artist:   "Test Artist",
		Album:    "Test Album",
		Duration: 225,
	}

	t.Run("constructor copies DTO fields", func(t *testing.T) {
		track := NewPersistedTrack(1, dto)

		if track.TrackID() != "trk_001" {
			t.Errorf("TrackID() = %s, want trk_001", track.TrackID())
		}
		if track.Title() != "Night Drive" {
			t.Errorf("Title() = %s, want Night Drive", track.Title())
		}
		if track.Duration() != 225 {
			t.Errorf("Duration() = %d, want 225", track.Duration())
		}
		if track.CreatedAt().IsZero() {
			t.Error("CreatedAt() should be set by constructor")
		}
	})

	t.Run("validate requires id", func(t *testing.T) {
		track := NewPersistedTrack(1, dto)
		if err := track.Validate(); err == nil {
			t.Error("Validate() should fail before an id is assigned")
		}

		track.SetID("row-1")
		if err := track.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("validate rejects missing title", func(t *testing.T) {
		track := NewPersistedTrack(1, Track{ID: "trk_002"})
		track.SetID("row-2")
		if err := track.Validate(); err == nil {
			t.Error("Validate() should fail without a title")
		}
	})

	t.Run("DTO round trip", func(t *testing.T) {
		track := NewPersistedTrack(1, dto)
		got := track.DTO()
		if got != dto {
			t.Errorf("DTO() = %+v, want %+v", got, dto)
		}
	})
}

func TestLocalFile(t *testing.T) {
	t.Run("constructor sets timestamps", func(t *testing.T) {
		file := NewLocalFile(1, "trk_001", "/music/trk_001.mp3", 4096)

		if file.TrackID() != "trk_001" {
			t.Errorf("TrackID() = %s, want trk_001", file.TrackID())
		}
		if file.Bytes() != 4096 {
			t.Errorf("Bytes() = %d, want 4096", file.Bytes())
		}
		if file.DownloadedAt().IsZero() {
			t.Error("DownloadedAt() should be set by constructor")
		}
	})

	t.Run("validate", func(t *testing.T) {
		file := NewLocalFile(1, "trk_001", "/music/trk_001.mp3", 4096)
		if err := file.Validate(); err == nil {
			t.Error("Validate() should fail before an id is assigned")
		}

		file.SetID("row-1")
		if err := file.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}

		empty := NewLocalFile(2, "trk_002", "", 0)
		empty.SetID("row-2")
		if err := empty.Validate(); err == nil {
			t.Error("Validate() should fail without a path")
		}
	})

	t.Run("soft delete marker", func(t *testing.T) {
		file := NewLocalFile(1, "trk_001", "/music/trk_001.mp3", 4096)
		if file.DeletedAt() != nil {
			t.Error("DeletedAt() should start nil")
		}

		now := time.Now()
		file.SetDeletedAt(&now)
		if file.DeletedAt() == nil {
			t.Error("DeletedAt() should be set")
		}
	})
}

func TestCollectionExportTrackIDs(t *testing.T) {
	export := CollectionExport{
		Collection: Collection{ID: "pl_1", Name: "Mix", TrackCount: 3},
		Tracks: []Track{
			{ID: "t1"}, {ID: "t2"}, {ID: "t3"},
		},
	}

	ids := export.TrackIDs()
	want := []string{"t1", "t2", "t3"}
	if len(ids) != len(want) {
		t.Fatalf("TrackIDs() length = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("TrackIDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}
