package main

import (
	"context"
	"strings"

	"github.com/desertthunder/likeshuffle/internal/formatter"
	"github.com/desertthunder/likeshuffle/internal/tasks"
	"github.com/desertthunder/likeshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// runSummary is the --json form of a shuffle run.
type runSummary struct {
	RunID         string   `json:"run_id"`
	User          string   `json:"user"`
	PlaylistID    string   `json:"playlist_id"`
	Fetched       int      `json:"fetched"`
	Skipped       int      `json:"skipped"`
	DryRun        bool     `json:"dry_run"`
	Batches       int      `json:"batches"`
	Written       int      `json:"written"`
	FailedBatches int      `json:"failed_batches"`
	ClearFailed   bool     `json:"clear_failed"`
	Order         []string `json:"order,omitempty"`
}

func newRunSummary(result *tasks.RunResult) runSummary {
	s := runSummary{
		RunID:      result.RunID,
		PlaylistID: result.PlaylistID,
		Fetched:    result.Fetched,
		Skipped:    result.Skipped,
		DryRun:     result.DryRun,
	}
	if result.User != nil {
		s.User = result.User.ID
	}
	if w := result.Write; w != nil {
		s.Batches = w.Batches
		s.Written = w.Written
		s.FailedBatches = w.FailedBatches
		s.ClearFailed = w.ClearErr != nil
	}
	if result.DryRun {
		for _, tr := range result.Order {
			s.Order = append(s.Order, tr.ID)
		}
	}
	return s
}

// Shuffle replaces the target playlist with the user's liked songs in random order.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd, true)
	if err != nil {
		return err
	}

	lib, err := r.connect(ctx, config)
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	opts := tasks.RunOpts{
		PlaylistID: config.Shuffle.PlaylistID,
		BatchSize:  config.Shuffle.BatchSize,
		PageSize:   config.Shuffle.PageSize,
		RateLimit:  config.Shuffle.RateLimit,
		DryRun:     cmd.Bool("dry-run"),
		Strict:     config.Shuffle.Strict,
	}

	var progress chan tasks.ProgressUpdate
	done := make(chan struct{})
	if useJSON {
		close(done)
	} else {
		progress = make(chan tasks.ProgressUpdate, 64)
		go r.printProgress(progress, done)
	}

	result, runErr := r.engine(lib).Run(ctx, progress, opts)
	if progress != nil {
		close(progress)
	}
	<-done

	if result == nil {
		return runErr
	}

	if useJSON {
		if err := r.writeJSON(newRunSummary(result), true); err != nil {
			return err
		}
		return runErr
	}

	r.printSummary(result)
	return runErr
}

func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		if line := ui.Styles.Progress(u); line != "" {
			r.writePlainln("%s", line)
		}
	}
}

func (r *Runner) printSummary(result *tasks.RunResult) {
	who := "you"
	if result.User != nil {
		who = result.User.DisplayName
		if who == "" {
			who = result.User.ID
		}
	}

	r.writePlainln("")
	r.writePlainln("%s", ui.Styles.Title("Shuffled %d liked songs for %s", result.Fetched, who))

	if result.Skipped > 0 {
		r.writePlainln("%s", ui.Styles.Warn("%d saved entries had no track ID and were skipped", result.Skipped))
	}

	if result.DryRun {
		for i, tr := range result.Order {
			r.writePlainln("%4d. %s - %s", i+1, tr.Name, strings.Join(tr.Artists, ", "))
		}
		r.writePlainln("%s", ui.Styles.Help("Dry run: playlist %s was not modified", result.PlaylistID))
		return
	}

	w := result.Write
	if w.ClearErr != nil {
		r.writePlainln("%s", ui.Styles.Err("Could not clear playlist %s: %v", result.PlaylistID, w.ClearErr))
	}
	if w.FailedBatches > 0 {
		r.writePlainln("%s", ui.Styles.Err("%d of %d batches failed", w.FailedBatches, w.Batches))
	}
	r.writePlainln("%s", ui.Styles.OK("Wrote %d tracks to playlist %s in %d batches", w.Written, result.PlaylistID, w.Batches))
}

// Tracks lists the user's liked songs, one "* name" line each, or exports them with --format and --output.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd, true)
	if err != nil {
		return err
	}

	lib, err := r.connect(ctx, config)
	if err != nil {
		return err
	}

	result, err := r.engine(lib).Tracks(ctx, nil, config.Shuffle.PageSize)
	if err != nil {
		return err
	}
	r.logger.Info("listed saved tracks", "tracks", len(result.Tracks), "skipped", result.Skipped, "pages", result.Pages)

	if cmd.Bool("json") {
		return r.writeJSON(result.Tracks, true)
	}

	export := &formatter.Export{Tracks: result.Tracks, Skipped: result.Skipped}
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(format, export, path); err != nil {
			return err
		}
		return r.writePlainln("%s", ui.Styles.OK("Exported %d tracks to %s", len(result.Tracks), path))
	}

	data, err := formatter.Render(format, export)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
