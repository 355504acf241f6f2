// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/likeshuffle/internal/services"
	"golang.org/x/oauth2"
)

// MockLibrary is an in-memory [services.Library].
//
// Tracks with an empty ID are reported as skipped entries, the way the Spotify implementation treats local files.
// Every call is recorded so tests can assert on ordering and on the absence of network activity.
type MockLibrary struct {
	User     *services.User
	Tracks   []services.Track
	UserErr  error
	PageErr  error
	ClearErr error
	// FailAppends maps a zero-based append call index to the error it returns.
	FailAppends map[int]error

	mu       sync.Mutex
	calls    []string
	cleared  []string
	appended [][]string
}

func (m *MockLibrary) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockLibrary) Name() string { return "mock" }

func (m *MockLibrary) CurrentUser(ctx context.Context) (*services.User, error) {
	m.record("CurrentUser")
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User == nil {
		return &services.User{ID: "mock_user", DisplayName: "Mock User"}, nil
	}
	return m.User, nil
}

func (m *MockLibrary) SavedTracksPage(ctx context.Context, offset, limit int) (*services.TrackPage, error) {
	m.record("SavedTracksPage")
	if m.PageErr != nil {
		return nil, m.PageErr
	}

	end := min(offset+limit, len(m.Tracks))
	page := &services.TrackPage{
		Total:      len(m.Tracks),
		NextOffset: end,
		HasNext:    end < len(m.Tracks),
	}

	for _, tr := range m.Tracks[min(offset, end):end] {
		if tr.ID == "" {
			page.Skipped++
			continue
		}
		page.Tracks = append(page.Tracks, tr)
	}
	return page, nil
}

func (m *MockLibrary) ClearPlaylist(ctx context.Context, playlistID string) error {
	m.record("ClearPlaylist")
	m.mu.Lock()
	m.cleared = append(m.cleared, playlistID)
	m.mu.Unlock()
	return m.ClearErr
}

func (m *MockLibrary) AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	m.record("AppendToPlaylist")
	m.mu.Lock()
	idx := len(m.appended)
	m.appended = append(m.appended, append([]string(nil), trackIDs...))
	m.mu.Unlock()

	if err, ok := m.FailAppends[idx]; ok {
		return err
	}
	return nil
}

// Calls returns the recorded method names in call order.
func (m *MockLibrary) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Cleared returns the playlist IDs passed to ClearPlaylist.
func (m *MockLibrary) Cleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cleared...)
}

// Appended returns every batch passed to AppendToPlaylist, including failed ones.
func (m *MockLibrary) Appended() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.appended...)
}

// TrackIDs returns the IDs of the usable tracks in library order.
func (m *MockLibrary) TrackIDs() []string {
	var ids []string
	for _, tr := range m.Tracks {
		if tr.ID != "" {
			ids = append(ids, tr.ID)
		}
	}
	return ids
}

// MakeTracks builds n tracks with IDs t0000, t0001 and so on.
func MakeTracks(n int) []services.Track {
	tracks := make([]services.Track, n)
	for i := range tracks {
		id := fmt.Sprintf("t%04d", i)
		tracks[i] = services.Track{ID: id, Name: "Song " + id, Artists: []string{"Artist"}}
	}
	return tracks
}

// MockAuthorizer is a test double for the OAuth authorizer that records the last state it issued.
type MockAuthorizer struct {
	mu        sync.Mutex
	state     string
	Exchanged []string
	Refreshed int
}

func (m *MockAuthorizer) GetAuthURL(state string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockAuthorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exchanged = append(m.Exchanged, code)
	return &oauth2.Token{AccessToken: "access_" + code, RefreshToken: "refresh_" + code}, nil
}

func (m *MockAuthorizer) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshed++
	return &oauth2.Token{AccessToken: "refreshed", RefreshToken: token.RefreshToken}, nil
}

// RedirectInput returns a reader that, once read, yields the redirect URL for code with the last issued state.
func (m *MockAuthorizer) RedirectInput(code string) io.Reader {
	return &lazyReader{fn: func() string {
		m.mu.Lock()
		defer m.mu.Unlock()
		return "http://127.0.0.1:8888/callback?code=" + code + "&state=" + m.state + "\n"
	}}
}

type lazyReader struct {
	fn  func() string
	buf io.Reader
}

func (l *lazyReader) Read(p []byte) (int, error) {
	if l.buf == nil {
		l.buf = strings.NewReader(l.fn())
	}
	return l.buf.Read(p)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// ErrReader fails every read, standing in for a closed stdin.
type ErrReader struct{}

func (ErrReader) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
