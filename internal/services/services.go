package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Library is the remote surface needed to read saved tracks and rewrite a playlist.
type Library interface {
	// CurrentUser returns the profile of the authenticated user.
	CurrentUser(ctx context.Context) (*User, error)

	// SavedTracksPage returns one page of the user's saved tracks starting at offset.
	SavedTracksPage(ctx context.Context, offset, limit int) (*TrackPage, error)

	// ClearPlaylist replaces every item in the playlist with an empty list.
	ClearPlaylist(ctx context.Context, playlistID string) error

	// AppendToPlaylist appends tracks, in order, to the end of the playlist.
	AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by services that authenticate with the authorization code flow.
type OAuthService interface {
	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a new access token using the refresh token in token.
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)

	// OAuthenticate configures the service to send requests with token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// User represents the authenticated account.
type User struct {
	ID          string
	DisplayName string
}

// Track represents a saved track reference.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// TrackPage is a single page of saved tracks.
//
// Skipped counts entries on the page that carried no usable track.
type TrackPage struct {
	Tracks     []Track
	Skipped    int
	Total      int
	NextOffset int
	HasNext    bool
}
