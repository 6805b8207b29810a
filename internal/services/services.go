// package services defines interface Service for interacting with the
// Familliar library proxy over HTTP
package services

import (
	"context"

	"github.com/seethroughlab/familliar-sub003/internal/models"
)

// Service defines the interface for the library proxy: the authority on what
// collections exist and which tracks they contain. The download pipeline
// resolves every collection through this interface before scheduling.
type Service interface {
	// Authenticate stores the bearer token used on subsequent requests.
	// Returns an error if the credentials are unusable.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylists retrieves all playlists in the linked account's library.
	GetPlaylists(ctx context.Context) ([]models.Collection, error)

	// GetPlaylist retrieves a specific playlist by ID, without tracks.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Collection, error)

	// ExportPlaylist exports a playlist with its full track listing.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.CollectionExport, error)

	// ExportAlbum exports an album with its full track listing.
	ExportAlbum(ctx context.Context, albumID string) (*models.CollectionExport, error)

	// ExportLikedSongs exports the liked-songs list with its full track listing.
	ExportLikedSongs(ctx context.Context) (*models.CollectionExport, error)

	// StreamURL returns the URL the transfer client fetches a track's audio from.
	StreamURL(trackID string) string

	// Name returns the display name of the backing service.
	Name() string
}
