package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/likeshuffle/internal/services"
	"github.com/desertthunder/likeshuffle/internal/shared"
)

// FetchResult is the complete saved track collection.
type FetchResult struct {
	Tracks  []services.Track // Usable tracks in library order
	Skipped int              // Entries dropped for lacking a track ID
	Pages   int              // Number of pages requested
}

// FetchSavedTracks pages through the user's saved tracks until the library reports no further page.
//
// Pages are requested one at a time. Unusable entries are counted rather than failing the fetch.
func FetchSavedTracks(ctx context.Context, lib services.Library, pageSize int, progress chan<- ProgressUpdate) (*FetchResult, error) {
	if pageSize <= 0 || pageSize > shared.MaxPageSize {
		pageSize = shared.MaxPageSize
	}

	result := &FetchResult{}
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := lib.SavedTracksPage(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch saved tracks at offset %d: %w", offset, err)
		}

		result.Pages++
		result.Tracks = append(result.Tracks, page.Tracks...)
		result.Skipped += page.Skipped

		sendProgress(progress, fetchPageUpdate(len(result.Tracks)+result.Skipped, page.Total))

		if !page.HasNext || page.NextOffset <= offset {
			break
		}
		offset = page.NextOffset
	}

	return result, nil
}
