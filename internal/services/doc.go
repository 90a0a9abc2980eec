// Package services defines the [Service] interface for the source music platform and implements it for YouTube.
//
// # Service Interface
//
// The playlist workflows consume a small abstraction: fetch the user's liked
// songs, create a playlist, add one item at a time. [YouTubeService] backs it
// with the YouTube Data API v3.
//
// # Authentication
//
// [YouTubeService] uses OAuth2 authorization-code flow against Google.
// Credentials are installed per user via Authenticate; [YouTubeService.AuthURL]
// and [YouTubeService.Exchange] drive the browser flow.
//
// Expired access tokens are handled inside doWithRetry: a 401 triggers exactly
// one refresh via the stored refresh token and a single retry of the failing
// request. A second 401 surfaces [shared.ErrAuthExpired] and the whole
// operation aborts with no partial results. The refresh callback set via
// [YouTubeService.SetTokenRefreshCallback] lets callers persist rotated tokens.
//
// # Error Handling
//
// Non-2xx responses are returned as [*StatusError] carrying the upstream
// status and detail message. Workflow layers map these onto the typed errors
// in the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAuthExpired] : token expired and refresh did not help
//   - [shared.ErrUpstream] : any other upstream failure
package services
