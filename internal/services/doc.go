// Package services defines the [Service] interface for the Familliar library
// proxy and implements it with [ProxyService].
//
// # Service Interface
//
// The download pipeline resolves collections (playlists, albums, liked songs)
// into track listings through one abstraction, so the scheduler never talks
// HTTP directly.
//
// # Proxy Implementation
//
// [ProxyService] communicates with the FastAPI proxy server wrapping the
// linked streaming account.
//
// The proxy handles upstream authentication complexities. A bearer token from
// the account-link flow is sent via the Authorization header on each request.
// All operations are synchronous HTTP calls to the proxy endpoints; audio is
// fetched separately from StreamURL by the transfer client.
//
// # Account Linking
//
// [LinkConfig] builds the oauth2 configuration for the proxy's /auth
// endpoints. The setup command drives the authorization-code flow and
// persists the resulting token to config.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAuthFailed] : token rejected, relinking needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrCollectionNotFound] : collection ID not found
//
// # API Mappings
//
// [ProxyService] converts proxy JSON responses to models.Collection and
// models.Track: first artist becomes the track artist, album falls back to
// the containing album's title for album exports.
package services
