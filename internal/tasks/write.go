package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likeshuffle/internal/services"
	"github.com/desertthunder/likeshuffle/internal/shared"
	"golang.org/x/time/rate"
)

// WriteOptions controls how a playlist is rewritten.
type WriteOptions struct {
	PlaylistID string
	BatchSize  int     // Tracks per append call, at most [shared.MaxBatchSize]
	RateLimit  float64 // Write calls per second; zero or less disables pacing
}

// WriteResult summarizes a playlist rewrite.
type WriteResult struct {
	Batches       int   // Append calls issued
	Written       int   // Tracks in successful appends
	FailedBatches int   // Append calls that returned an error
	ClearErr      error // Error from clearing the playlist, if any
}

// Partial reports whether any write call failed.
func (w *WriteResult) Partial() bool {
	return w.ClearErr != nil || w.FailedBatches > 0
}

// Chunk splits items into consecutive slices of at most size elements, preserving order.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// WritePlaylist empties the playlist and appends ids in batches, in order.
//
// Failed calls are logged and counted; later batches are still attempted and nothing is retried.
// The only returned error is context cancellation while waiting on the rate limiter.
func WritePlaylist(ctx context.Context, lib services.Library, ids []string, opts WriteOptions, logger *log.Logger, progress chan<- ProgressUpdate) (*WriteResult, error) {
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if opts.BatchSize <= 0 || opts.BatchSize > shared.MaxBatchSize {
		opts.BatchSize = shared.MaxBatchSize
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	result := &WriteResult{}

	sendProgress(progress, clearUpdate(opts.PlaylistID))
	if err := limiter.Wait(ctx); err != nil {
		return result, err
	}
	if err := lib.ClearPlaylist(ctx, opts.PlaylistID); err != nil {
		logger.Error("failed to clear playlist", "playlist", opts.PlaylistID, "error", err)
		result.ClearErr = err
	}

	batches := Chunk(ids, opts.BatchSize)
	for i, batch := range batches {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		result.Batches++
		err := lib.AppendToPlaylist(ctx, opts.PlaylistID, batch)
		if err != nil {
			logger.Error("failed to append batch", "batch", i+1, "of", len(batches), "size", len(batch), "error", err)
			result.FailedBatches++
		} else {
			result.Written += len(batch)
		}

		sendProgress(progress, appendUpdate(i+1, len(batches), len(batch), err))
	}

	return result, nil
}
