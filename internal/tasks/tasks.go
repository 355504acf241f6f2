package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likeshuffle/internal/services"
	"github.com/desertthunder/likeshuffle/internal/shared"
)

// RunOpts configures a single shuffle run.
type RunOpts struct {
	PlaylistID string
	BatchSize  int
	PageSize   int
	RateLimit  float64
	DryRun     bool // Fetch and shuffle without touching the playlist
	Strict     bool // Return [shared.ErrPartialWrite] when any write call fails
}

// RunResult contains all data from a shuffle run.
type RunResult struct {
	RunID      string
	User       *services.User
	PlaylistID string
	Fetched    int              // Usable saved tracks
	Skipped    int              // Saved entries without a track ID
	Order      []services.Track // Shuffled order written to the playlist
	Write      *WriteResult     // Nil for dry runs
	DryRun     bool
}

// ShuffleEngine rewrites a playlist with the user's saved tracks in random order.
type ShuffleEngine struct {
	library services.Library
	logger  *log.Logger
	shuffle ShuffleFunc
}

// EngineOption customizes a [ShuffleEngine].
type EngineOption func(*ShuffleEngine)

// WithShuffleFunc replaces the random permutation, mainly for deterministic tests.
func WithShuffleFunc(fn ShuffleFunc) EngineOption {
	return func(e *ShuffleEngine) { e.shuffle = fn }
}

// NewShuffleEngine creates a new [ShuffleEngine] backed by lib.
func NewShuffleEngine(lib services.Library, logger *log.Logger, opts ...EngineOption) *ShuffleEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &ShuffleEngine{library: lib, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run fetches every saved track, shuffles them and rewrites the target playlist.
//
// Write failures do not stop the run. They are reported in [RunResult.Write] and only turn into an error in strict mode.
func (e *ShuffleEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	result := &RunResult{
		RunID:      shared.GenerateID(),
		PlaylistID: opts.PlaylistID,
		DryRun:     opts.DryRun,
	}
	logger := shared.WithLogger(e.logger, "run_id", result.RunID)

	sendProgress(progress, fetchUserUpdate())
	user, err := e.library.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	result.User = user
	sendProgress(progress, foundUserUpdate(user))
	logger.Info("authenticated", "user", user.ID)

	fetched, err := FetchSavedTracks(ctx, e.library, opts.PageSize, progress)
	if err != nil {
		return nil, err
	}
	result.Fetched = len(fetched.Tracks)
	result.Skipped = fetched.Skipped
	logger.Info("fetched saved tracks", "tracks", result.Fetched, "skipped", result.Skipped, "pages", fetched.Pages)
	if fetched.Skipped > 0 {
		logger.Warn("dropped saved entries without a track id", "count", fetched.Skipped)
	}

	result.Order = Shuffle(fetched.Tracks, e.shuffle)
	sendProgress(progress, shuffleUpdate(len(result.Order)))

	if opts.DryRun {
		logger.Info("dry run, playlist left untouched", "playlist", opts.PlaylistID)
		sendProgress(progress, doneUpdate(result))
		return result, nil
	}

	ids := make([]string, len(result.Order))
	for i, tr := range result.Order {
		ids[i] = tr.ID
	}

	write, err := WritePlaylist(ctx, e.library, ids, WriteOptions{
		PlaylistID: opts.PlaylistID,
		BatchSize:  opts.BatchSize,
		RateLimit:  opts.RateLimit,
	}, logger, progress)
	result.Write = write
	if err != nil {
		return result, err
	}

	logger.Info("playlist written", "playlist", opts.PlaylistID, "written", write.Written, "batches", write.Batches, "failed", write.FailedBatches)
	sendProgress(progress, doneUpdate(result))

	if opts.Strict && write.Partial() {
		return result, fmt.Errorf("%w: %d of %d batches failed", shared.ErrPartialWrite, write.FailedBatches, write.Batches)
	}
	return result, nil
}

// Tracks fetches the saved track collection without modifying anything.
func (e *ShuffleEngine) Tracks(ctx context.Context, progress chan<- ProgressUpdate, pageSize int) (*FetchResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}
	return FetchSavedTracks(ctx, e.library, pageSize, progress)
}
