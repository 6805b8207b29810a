package repositories

import (
	"errors"
	"testing"

	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, models.Track{ID: "trk_001"}) // no title

			if err := repo.Create(track); err == nil {
				t.Fatal("expected validation error for track with empty title")
			}
		})

		t.Run("DuplicateTrackID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			if err := repo.Create(models.NewPersistedTrack(0, testTrack("trk_001", "Night Drive"))); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}

			err := repo.Create(models.NewPersistedTrack(0, testTrack("trk_001", "Other Title")))
			if err == nil {
				t.Fatal("expected error when creating track with duplicate track_id")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			_, err := repo.Get("nonexistent-id")
			if err == nil {
				t.Fatal("expected error when getting nonexistent track")
			}
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("NotFoundByTrackID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			_, err := repo.GetByTrackID("trk_missing")
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, testTrack("trk_001", "Night Drive"))
			track.SetID("nonexistent-id")

			if err := repo.Update(track); err == nil {
				t.Fatal("expected error when updating nonexistent track")
			}
		})

		t.Run("Deleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, testTrack("trk_001", "Night Drive"))

			if err := repo.Create(track); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
			if err := repo.Delete(track.ID()); err != nil {
				t.Fatalf("failed to delete track: %v", err)
			}

			if err := repo.Update(track); err == nil {
				t.Fatal("expected error when updating deleted track")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			if err := repo.Delete("nonexistent-id"); err == nil {
				t.Fatal("expected error when deleting nonexistent track")
			}
		})

		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track := models.NewPersistedTrack(0, testTrack("trk_001", "Night Drive"))

			if err := repo.Create(track); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
			if err := repo.Delete(track.ID()); err != nil {
				t.Fatalf("failed to delete track: %v", err)
			}

			if err := repo.Delete(track.ID()); err == nil {
				t.Fatal("expected error when deleting already deleted track")
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ExcludesDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)

			first := models.NewPersistedTrack(0, testTrack("trk_001", "Night Drive"))
			second := models.NewPersistedTrack(0, testTrack("trk_002", "Morning Sun"))

			if err := repo.Create(first); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}
			if err := repo.Create(second); err != nil {
				t.Fatalf("failed to create second track: %v", err)
			}

			if err := repo.Delete(first.ID()); err != nil {
				t.Fatalf("failed to delete first track: %v", err)
			}

			tracks, err := repo.List(map[string]any{})
			if err != nil {
				t.Fatalf("failed to list tracks: %v", err)
			}

			if len(tracks) != 1 {
				t.Errorf("expected 1 track (excluding deleted), got %d", len(tracks))
			}
			if len(tracks) > 0 && tracks[0].TrackID() != "trk_002" {
				t.Errorf("expected trk_002, got %s", tracks[0].TrackID())
			}
		})
	})
}

func TestFileRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)
			file := models.NewLocalFile(0, "trk_001", "", 100) // no path

			if err := repo.Create(file); err == nil {
				t.Fatal("expected validation error for file with empty path")
			}
		})

		t.Run("DuplicateTrackID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)

			if err := repo.Create(models.NewLocalFile(0, "trk_001", "/music/a.mp3", 1)); err != nil {
				t.Fatalf("failed to create first file: %v", err)
			}

			err := repo.Create(models.NewLocalFile(0, "trk_001", "/music/b.mp3", 2))
			if err == nil {
				t.Fatal("expected error when creating second file for same track")
			}
		})
	})

	t.Run("NotFound errors", func(t *testing.T) {
		t.Run("Get", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)

			if _, err := repo.Get("nonexistent-id"); err == nil {
				t.Fatal("expected error when getting nonexistent file")
			}
		})

		t.Run("GetByTrackID", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)

			if _, err := repo.GetByTrackID("trk_missing"); err == nil {
				t.Fatal("expected error when getting file for uncached track")
			}
		})

		t.Run("Update", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)
			file := models.NewLocalFile(0, "trk_001", "/music/trk_001.mp3", 100)
			file.SetID("nonexistent-id")

			if err := repo.Update(file); err == nil {
				t.Fatal("expected error when updating nonexistent file")
			}
		})

		t.Run("Delete", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewFileRepository(db)

			if err := repo.Delete("nonexistent-id"); err == nil {
				t.Fatal("expected error when deleting nonexistent file")
			}
		})
	})
}

func TestOfflineIndexErrors(t *testing.T) {
	t.Run("CacheTrack invalid metadata", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		index := NewOfflineIndex(NewTrackRepository(db), NewFileRepository(db))

		if err := index.CacheTrack(models.Track{ID: "trk_001"}); err == nil {
			t.Fatal("expected error when caching track without a title")
		}
	})

	t.Run("RecordDownload invalid path", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		index := NewOfflineIndex(NewTrackRepository(db), NewFileRepository(db))

		if err := index.RecordDownload("trk_001", "", 100); err == nil {
			t.Fatal("expected error when recording download without a path")
		}
	})

	t.Run("TrackInfo not found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		index := NewOfflineIndex(NewTrackRepository(db), NewFileRepository(db))

		_, err := index.TrackInfo("trk_missing")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}
