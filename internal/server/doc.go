// Package server provides HTTP routing, middleware, sessions, and OAuth
// handling for the group playlist web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Flow
//
// [OAuthHandler] drives the Google authorization code flow. /auth/login
// issues a single-use state parameter and redirects to the consent screen;
// /auth/callback validates the state (CSRF protection), exchanges the code,
// links the credential to the user's account, and starts a session.
//
// # Sessions
//
// [SessionManager] issues HS256-signed tokens with the user ID as subject.
// Browser clients carry the token in a cookie; API clients may send it as an
// Authorization bearer header. The [SessionManager.Require] middleware
// enforces a valid session and exposes the user ID through [UserIDFrom].
//
// # API Handlers
//
// [APIHandler] serves the JSON API for groups, liked-song sync, previews,
// and playlist generation. Domain errors map onto HTTP statuses in one
// place, so handlers return errors rather than writing status codes.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
