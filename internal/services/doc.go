// Package services implements the clients for the FastAPI proxy (music/) that wraps ytmusicapi.
//
// # Catalog
//
// [Catalog] is the read-only surface the player needs: search, playlists and audio streams.
// [ProxyClient] implements it over HTTP.
//
// The proxy handles YouTube Music authentication complexities.
// The auth file path is sent via the X-Auth-File header on each request.
// Requests go through a token-bucket limiter configured by proxy.rate_limit.
//
// # Raw access
//
// [APIService] makes unparsed GET/POST calls for the `api` CLI command.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : proxy answered with a non-2xx status (see [StatusError])
//   - [shared.ErrServiceUnavailable] : proxy unreachable
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrStreamFailed] : audio stream could not be opened
//
// # API Mappings
//
// Proxy responses ([YouTubeTrack], [YouTubePlaylist]) are converted to [models.Track] and [models.Playlist].
// Search results without a videoId (artists, albums) are not playable and are dropped.
package services
