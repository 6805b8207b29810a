// Familliar library proxy [Service] implementation
//
// Communicates with the FastAPI proxy server running on port 8666. The proxy
// wraps the linked streaming account and exposes collections and audio
// streams over a small JSON API.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

const defaultProxyBaseURL string = "http://localhost:8666"

// ProxyArtist represents an artist in proxy responses.
type ProxyArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type proxyAlbumRef struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ProxyTrack represents a track in proxy responses.
type ProxyTrack struct {
	TrackID     string         `json:"trackId"`
	Title       string         `json:"title"`
	Artists     []ProxyArtist  `json:"artists"`
	Album       *proxyAlbumRef `json:"album"`
	DurationSec int            `json:"duration_seconds"`
}

// ProxyPlaylist represents a playlist from the proxy.
type ProxyPlaylist struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	TrackCount  int          `json:"trackCount"`
	Tracks      []ProxyTrack `json:"tracks,omitempty"`
}

// ProxyAlbum represents an album from the proxy.
type ProxyAlbum struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Artists    []ProxyArtist `json:"artists"`
	Year       string        `json:"year"`
	TrackCount int           `json:"trackCount"`
	Tracks     []ProxyTrack  `json:"tracks,omitempty"`
}

// ProxyService implements the Service interface against the Familliar proxy.
type ProxyService struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewProxyService creates a proxy client. An empty token is allowed; calls
// will fail with ErrNotAuthenticated until Authenticate supplies one.
func NewProxyService(baseURL, token string) *ProxyService {
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}

	return &ProxyService{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (p *ProxyService) Name() string {
	return "Familliar Library"
}

// Authenticate stores the bearer token for subsequent requests.
//
// Expects credentials["token"] to contain a token from the account-link flow.
func (p *ProxyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	token, ok := credentials["token"]
	if !ok || token == "" {
		return fmt.Errorf("%w: missing token in credentials", shared.ErrNotAuthenticated)
	}

	p.token = token
	return nil
}

func (p *ProxyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if p.token == "" {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := p.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		detail := ""
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			detail = errResp.Detail
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAuthFailed, resp.StatusCode, detail)
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, detail)
		}
		if detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetPlaylists retrieves all playlists in the linked library.
//
// Calls GET /api/library/playlists on the proxy.
func (p *ProxyService) GetPlaylists(ctx context.Context) ([]models.Collection, error) {
	var proxyPlaylists []struct {
		PlaylistID  string `json:"playlistId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Count       int    `json:"count"`
	}

	if err := p.doRequest(ctx, http.MethodGet, "/api/library/playlists", &proxyPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Collection, len(proxyPlaylists))
	for i, pp := range proxyPlaylists {
		playlists[i] = models.Collection{
			ID:          pp.PlaylistID,
			Name:        pp.Title,
			Description: pp.Description,
			TrackCount:  pp.Count,
		}
	}

	return playlists, nil
}

// GetPlaylist retrieves a specific playlist by ID without tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (p *ProxyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Collection, error) {
	var proxyPlaylist struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		TrackCount  int    `json:"trackCount"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", playlistID)
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &proxyPlaylist); err != nil {
		return nil, err
	}

	return &models.Collection{
		ID:          proxyPlaylist.ID,
		Name:        proxyPlaylist.Title,
		Description: proxyPlaylist.Description,
		TrackCount:  proxyPlaylist.TrackCount,
	}, nil
}

// ExportPlaylist exports a playlist with all its tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (p *ProxyService) ExportPlaylist(ctx context.Context, playlistID string) (*models.CollectionExport, error) {
	var proxyPlaylist ProxyPlaylist

	endpoint := fmt.Sprintf("/api/playlists/%s", playlistID)
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &proxyPlaylist); err != nil {
		return nil, err
	}

	return &models.CollectionExport{
		Collection: models.Collection{
			ID:          proxyPlaylist.ID,
			Name:        proxyPlaylist.Title,
			Description: proxyPlaylist.Description,
			TrackCount:  proxyPlaylist.TrackCount,
		},
		Tracks: convertTracks(proxyPlaylist.Tracks),
	}, nil
}

// ExportAlbum exports an album with all its tracks.
//
// Calls GET /api/albums/{id} on the proxy.
func (p *ProxyService) ExportAlbum(ctx context.Context, albumID string) (*models.CollectionExport, error) {
	var proxyAlbum ProxyAlbum

	endpoint := fmt.Sprintf("/api/albums/%s", albumID)
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &proxyAlbum); err != nil {
		return nil, err
	}

	collection := models.Collection{
		ID:         proxyAlbum.ID,
		Name:       proxyAlbum.Title,
		TrackCount: proxyAlbum.TrackCount,
	}
	if len(proxyAlbum.Artists) > 0 {
		collection.Description = proxyAlbum.Artists[0].Name
	}

	tracks := convertTracks(proxyAlbum.Tracks)
	for i := range tracks {
		if tracks[i].Album == "" {
			tracks[i].Album = proxyAlbum.Title
		}
	}

	return &models.CollectionExport{
		Collection: collection,
		Tracks:     tracks,
	}, nil
}

// ExportLikedSongs exports the liked-songs list with all its tracks.
//
// Calls GET /api/library/liked on the proxy.
func (p *ProxyService) ExportLikedSongs(ctx context.Context) (*models.CollectionExport, error) {
	var liked struct {
		Count  int          `json:"count"`
		Tracks []ProxyTrack `json:"tracks"`
	}

	if err := p.doRequest(ctx, http.MethodGet, "/api/library/liked", &liked); err != nil {
		return nil, err
	}

	count := liked.Count
	if count == 0 {
		count = len(liked.Tracks)
	}

	return &models.CollectionExport{
		Collection: models.Collection{
			ID:         "liked",
			Name:       "Liked Songs",
			TrackCount: count,
		},
		Tracks: convertTracks(liked.Tracks),
	}, nil
}

// StreamURL returns the proxy endpoint that serves a track's audio.
func (p *ProxyService) StreamURL(trackID string) string {
	return fmt.Sprintf("%s/api/tracks/%s/stream", p.baseURL, trackID)
}

func convertTracks(proxyTracks []ProxyTrack) []models.Track {
	tracks := make([]models.Track, len(proxyTracks))
	for i, pt := range proxyTracks {
		track := models.Track{
			ID:       pt.TrackID,
			Title:    pt.Title,
			Duration: pt.DurationSec,
		}

		if len(pt.Artists) > 0 {
			track.Artist = pt.Artists[0].Name
		}

		if pt.Album != nil {
			track.Album = pt.Album.Name
		}

		tracks[i] = track
	}

	return tracks
}
