package tasks

import (
	"fmt"

	"github.com/desertthunder/likeshuffle/internal/services"
)

// ProgressUpdate represents a progress event during a shuffle run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	FetchTracks
	ShuffleTracks
	ClearPlaylist
	AppendBatch
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchTracks:
		return "fetch_tracks"
	case ShuffleTracks:
		return "shuffle_tracks"
	case ClearPlaylist:
		return "clear_playlist"
	case AppendBatch:
		return "append_batch"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUser,
		Step:    1,
		Total:   1,
		Message: "Looking up current user...",
	}
}

func foundUserUpdate(user *services.User) ProgressUpdate {
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return ProgressUpdate{
		Phase:   FetchUser,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Signed in as %s", name),
		Data:    user,
	}
}

func fetchPageUpdate(fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching saved tracks...", fetched, total),
	}
}

func shuffleUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShuffleTracks,
		Step:    n,
		Total:   n,
		Message: fmt.Sprintf("Shuffled %d tracks", n),
	}
}

func clearUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Clearing playlist %s...", playlistID),
	}
}

func appendUpdate(step, total, size int, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ appended %d tracks", step, total, size)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ batch of %d failed: %v", step, total, size, err)
	}
	return ProgressUpdate{
		Phase:   AppendBatch,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    err,
	}
}

func doneUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: "Done",
		Data:    result,
	}
}
