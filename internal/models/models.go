// package models defines the data model for the offline download service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the offline library.
// Implementations include PersistedTrack and LocalFile.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is the DTO for a single track as reported by the library proxy.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"` // seconds
}

// Collection is the DTO for a named group of tracks: a playlist, an
// album, or the liked-songs list.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
}

// CollectionExport pairs a collection with its full track listing.
type CollectionExport struct {
	Collection Collection `json:"collection"`
	Tracks     []Track    `json:"tracks"`
}

// TrackIDs returns the ids of the export's tracks in listing order.
func (e *CollectionExport) TrackIDs() []string {
	ids := make([]string, 0, len(e.Tracks))
	for _, track := range e.Tracks {
		ids = append(ids, track.ID)
	}
	return ids
}
