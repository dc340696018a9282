// Package server provides HTTP routing, middleware, the access gate and the handlers of the spotifie service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps the router in reverse order (last added executes first), following the standard Go pattern.
// [Recovery], [RequestLogger] and [CORS] are installed by [New].
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # Gate
//
// Every route registered through [BasicRouter.Handler] is wrapped by a [Gate]. The gate resolves the session
// cookie into an immutable [models.AuthContext], looks up the path in the [AccessTable] and answers 401 before
// dispatch when an authenticated path is requested anonymously. [Evaluate] is the pure decision function.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, returning their [Route] list. Each route receives the
// caller's AuthContext as an argument:
//   - [SpotifyHandler] : landing page and the profile, playlists and top tracks relays
//   - [LoginHandler] : OAuth2 login redirect, callback and logout
//   - [RedisHandler] : public cache diagnostics under /api/test/redis
//   - [HealthHandler] : /actuator/health
//
// All responses are [models.Envelope] values encoded as JSON.
package server
