package ui

import (
	"github.com/desertthunder/likeshuffle/internal/tasks"
)

// Progress renders a progress update as a single styled line.
//
// Failed append batches are highlighted; page fetches and other steps use the muted help style.
func (p *Palette) Progress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.AppendBatch:
		if err, ok := u.Data.(error); ok && err != nil {
			return p.err.Render(u.Message)
		}
		return p.ok.Render(u.Message)
	case tasks.FetchUser, tasks.ShuffleTracks:
		return p.Title("→ %s", u.Message)
	case tasks.Done:
		return ""
	default:
		return p.Help("%s", u.Message)
	}
}
