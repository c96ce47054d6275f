// Package server is the HTTP controller in front of the YouTube Music proxy and the player core.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering,
// so handlers can read wildcards with [http.Request.PathValue].
//
// # Routes
//
//	GET  /health
//	GET  /api/search?q=&filter=
//	GET  /api/playlists/{id}
//	GET  /api/library/playlists
//	GET  /api/stream/{id}         byte passthrough, upstream failure → 502
//	GET  /api/session             settings, playback snapshot, current URL
//	POST /api/control/{action}    media-key actions (play, pause, nexttrack, ...)
//	GET  /api/notifications
//
// Errors are JSON objects of the form {"error": "..."}; the status is derived from the
// sentinel errors in internal/shared.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes.
// [StreamHandler] is registered this way.
package server
