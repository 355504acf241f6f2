package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likeshuffle/internal/server"
	"github.com/desertthunder/likeshuffle/internal/shared"
	"golang.org/x/oauth2"
)

const DefaultCallbackTimeout = 2 * time.Minute

// AuthState is the startup decision between reusing the cache and authorizing interactively.
type AuthState int

const (
	NeedsAuthorization AuthState = iota
	CachedValid
)

func (s AuthState) String() string {
	switch s {
	case CachedValid:
		return "CachedValid"
	case NeedsAuthorization:
		return "NeedsAuthorization"
	default:
		return "Unknown"
	}
}

// Authorizer is the OAuth surface the [Manager] drives.
type Authorizer interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// ManagerOpts configures a [Manager].
type ManagerOpts struct {
	Cache        *TokenCache
	Authorizer   Authorizer
	In           io.Reader
	Out          io.Writer
	Logger       *log.Logger
	Mode         string // [shared.AuthModePaste] or [shared.AuthModeCallback]
	OpenBrowser  bool
	CallbackAddr string
	Timeout      time.Duration
}

// Manager obtains a usable token from the cache or the authorization code flow.
type Manager struct {
	cache        *TokenCache
	authorizer   Authorizer
	in           *bufio.Reader
	out          io.Writer
	logger       *log.Logger
	mode         string
	openBrowser  bool
	callbackAddr string
	timeout      time.Duration
}

// NewManager creates a new [Manager].
func NewManager(opts ManagerOpts) *Manager {
	m := &Manager{
		cache:        opts.Cache,
		authorizer:   opts.Authorizer,
		out:          opts.Out,
		logger:       opts.Logger,
		mode:         opts.Mode,
		openBrowser:  opts.OpenBrowser,
		callbackAddr: opts.CallbackAddr,
		timeout:      opts.Timeout,
	}

	if opts.In != nil {
		m.in = bufio.NewReader(opts.In)
	}
	if m.out == nil {
		m.out = io.Discard
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.mode == "" {
		m.mode = shared.AuthModePaste
	}
	if m.timeout <= 0 {
		m.timeout = DefaultCallbackTimeout
	}
	return m
}

// Cache returns the token cache the manager reads and writes.
func (m *Manager) Cache() *TokenCache {
	return m.cache
}

// Resolve inspects the cache once and decides whether interactive authorization is needed.
//
// A cached token is usable when it has a refresh token or an unexpired access token.
// Missing, unparseable or unusable caches resolve to [NeedsAuthorization].
func (m *Manager) Resolve() (AuthState, *oauth2.Token) {
	token, err := m.cache.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.logger.Debug("no cached token", "path", m.cache.Path)
		return NeedsAuthorization, nil
	case err != nil:
		m.logger.Warn("ignoring unreadable token cache", "path", m.cache.Path, "error", err)
		return NeedsAuthorization, nil
	case token.RefreshToken == "" && !token.Valid():
		m.logger.Warn("cached token expired without refresh token", "path", m.cache.Path)
		return NeedsAuthorization, nil
	}
	return CachedValid, token
}

// Acquire returns a refreshed token, authorizing interactively when the cache cannot be used.
//
// The resulting token is written back to the cache.
func (m *Manager) Acquire(ctx context.Context) (*oauth2.Token, error) {
	state, token := m.Resolve()
	m.logger.Debug("resolved auth state", "state", state)

	if state == NeedsAuthorization {
		var err error
		if token, err = m.Authorize(ctx); err != nil {
			return nil, err
		}
	}

	if token.RefreshToken != "" {
		refreshed, err := m.authorizer.Refresh(ctx, token)
		if err != nil {
			if errors.Is(err, shared.ErrRefreshFailed) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}
		token = refreshed
		m.logger.Debug("token refreshed", "expiry", token.Expiry)
	}

	if err := m.cache.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// Authorize runs the authorization code flow in the configured mode and returns the exchanged token.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	switch m.mode {
	case shared.AuthModeCallback:
		return m.authorizeCallback(ctx, state)
	case shared.AuthModePaste:
		return m.authorizePaste(ctx, state)
	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", shared.ErrInvalidConfig, m.mode)
	}
}

func (m *Manager) authorizePaste(ctx context.Context, state string) (*oauth2.Token, error) {
	if m.in == nil {
		return nil, fmt.Errorf("%w: no input to read the redirect URL from", shared.ErrNotAuthenticated)
	}

	authURL := m.authorizer.GetAuthURL(state)
	m.presentURL(authURL)
	fmt.Fprint(m.out, "Paste the URL you were redirected to: ")

	line, err := m.readLine(ctx)
	if err != nil {
		return nil, err
	}

	code, err := ParseResponseCode(line, state)
	if err != nil {
		return nil, err
	}

	return m.authorizer.Exchange(ctx, code)
}

func (m *Manager) authorizeCallback(ctx context.Context, state string) (*oauth2.Token, error) {
	srv := server.NewCallbackServer(m.callbackAddr, m.authorizer, state, m.logger)
	if err := srv.Start(); err != nil {
		return nil, err
	}

	m.presentURL(m.authorizer.GetAuthURL(state))
	fmt.Fprintf(m.out, "Waiting for authorization (%v timeout)...\n", m.timeout)

	return srv.Wait(ctx, m.timeout)
}

func (m *Manager) presentURL(authURL string) {
	if m.openBrowser {
		if err := shared.OpenBrowser(authURL); err != nil {
			m.logger.Warnf("failed to open browser automatically %v", err)
		}
	}
	fmt.Fprintf(m.out, "Open this URL in your browser to authorize likeshuffle:\n\n%s\n\n", authURL)
}

// readLine reads one line from the input, giving up when ctx ends.
func (m *Manager) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		line, err := m.in.ReadString('\n')
		done <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			return "", fmt.Errorf("%w: failed to read redirect URL: %v", shared.ErrInvalidResponse, r.err)
		}
		return r.line, nil
	}
}

// ParseResponseCode extracts the authorization code from a pasted redirect URL.
func ParseResponseCode(raw, state string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty redirect URL", shared.ErrInvalidResponse)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}

	return server.ParseCallbackQuery(u.Query(), state)
}
