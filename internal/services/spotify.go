package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/likeshuffle/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const defaultRedirectURI = "http://127.0.0.1:8888/callback"

// SpotifyService implements [Library] and [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	baseURL        string
	market         string
	onTokenRefresh func(*oauth2.Token)
	mu             sync.Mutex
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithEndpoint overrides the OAuth2 authorize and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) SpotifyOption {
	return func(s *SpotifyService) { s.config.Endpoint = endpoint }
}

// WithBaseURL overrides the Web API base URL. It must end with a slash.
func WithBaseURL(baseURL string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = baseURL }
}

// WithMarket restricts saved track listings to an ISO 3166-1 alpha-2 market.
func WithMarket(market string) SpotifyOption {
	return func(s *SpotifyService) { s.market = market }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials and scopes.
func NewSpotifyService(creds shared.SpotifyConfig, scopes []string, opts ...SpotifyOption) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// DefaultScopes returns the permissions needed to read saved tracks and rewrite playlists.
func DefaultScopes() []string {
	return []string{
		spotifyauth.ScopeUserLibraryRead,
		spotifyauth.ScopePlaylistReadPrivate,
		spotifyauth.ScopePlaylistReadCollaborative,
		spotifyauth.ScopePlaylistModifyPrivate,
		spotifyauth.ScopePlaylistModifyPublic,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetOAuthConfig returns the underlying [oauth2.Config].
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh forces a refresh of token, regardless of its expiry.
//
// The returned token keeps the previous refresh token when the server does not rotate it.
func (s *SpotifyService) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	src := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	refreshed, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return refreshed, nil
}

// SetTokenRefreshCallback registers fn to receive every new token the transport obtains.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

func (s *SpotifyService) notifyRefresh(token *oauth2.Token) {
	s.mu.Lock()
	fn := s.onTokenRefresh
	s.mu.Unlock()
	if fn != nil {
		fn(token)
	}
}

// OAuthenticate builds the API client around token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}

	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.notifyRefresh,
		last:     token.AccessToken,
	}

	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.token = token
	s.client = spotify.New(oauth2.NewClient(ctx, source), opts...)
	return nil
}

func (s *SpotifyService) ready() error {
	if s.client == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, apiError("current user", err)
	}

	return &User{ID: u.ID, DisplayName: u.DisplayName}, nil
}

// SavedTracksPage retrieves one page of the user's saved tracks.
//
// Entries without a track ID (local files, removed tracks) are counted in [TrackPage.Skipped] instead of returned.
func (s *SpotifyService) SavedTracksPage(ctx context.Context, offset, limit int) (*TrackPage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > shared.MaxPageSize {
		limit = shared.MaxPageSize
	}

	opts := []spotify.RequestOption{spotify.Limit(limit), spotify.Offset(offset)}
	if s.market != "" {
		opts = append(opts, spotify.Market(s.market))
	}

	page, err := s.client.CurrentUsersTracks(ctx, opts...)
	if err != nil {
		return nil, apiError("saved tracks", err)
	}

	result := &TrackPage{
		Tracks:     make([]Track, 0, len(page.Tracks)),
		Total:      int(page.Total),
		NextOffset: offset + len(page.Tracks),
		HasNext:    page.Next != "" && len(page.Tracks) > 0,
	}

	for _, saved := range page.Tracks {
		if saved.ID == "" {
			result.Skipped++
			continue
		}

		artists := make([]string, 0, len(saved.Artists))
		for _, a := range saved.Artists {
			artists = append(artists, a.Name)
		}

		result.Tracks = append(result.Tracks, Track{
			ID:      saved.ID.String(),
			Name:    saved.Name,
			Artists: artists,
		})
	}

	return result, nil
}

// ClearPlaylist replaces the playlist's items with an empty list.
func (s *SpotifyService) ClearPlaylist(ctx context.Context, playlistID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	if err := s.client.ReplacePlaylistTracks(ctx, spotify.ID(playlistID)); err != nil {
		return apiError("replace playlist items", err)
	}
	return nil
}

// AppendToPlaylist adds up to [shared.MaxBatchSize] tracks to the end of the playlist.
func (s *SpotifyService) AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > shared.MaxBatchSize {
		return fmt.Errorf("%w: at most %d tracks per call, got %d", shared.ErrInvalidArgument, shared.MaxBatchSize, len(trackIDs))
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return apiError("append playlist items", err)
	}
	return nil
}

// apiError maps client errors onto the shared sentinels.
func apiError(op string, err error) error {
	var spErr spotify.Error
	if errors.As(err, &spErr) && spErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrRefreshFailed, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
	mu       sync.Mutex
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}

	return token, nil
}
