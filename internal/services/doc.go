// Package services defines the [Library] interface for reading saved tracks and rewriting playlists,
// and implements it for Spotify.
//
// # Library Interface
//
// The shuffle pipeline in the tasks package depends only on [Library], so tests swap in an in-memory fake.
//
// # Spotify Implementation
//
// [SpotifyService] uses github.com/zmb3/spotify/v2 for requests and [oauth2] for authentication.
//
// The [oauth2.Client] refreshes expired access tokens with the refresh token.
// Every new token is passed to the callback registered with [SpotifyService.SetTokenRefreshCallback]
// so the caller can write it back to the token cache.
//
// # OAuth Service Extension
//
// [OAuthService] covers the authorization code flow: building the authorize URL, exchanging the code,
// forcing a refresh and configuring the client with the resulting token.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : OAuthenticate() not called
//   - [shared.ErrTokenExpired] : API answered 401
//   - [shared.ErrRefreshFailed] : token endpoint rejected the refresh token
//   - [shared.ErrAPIRequest] : any other failed request
//
// # Saved Track Mapping
//
// Saved track entries without a track ID, such as local files, are not returned.
// They are counted in [TrackPage.Skipped].
package services
