package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/formatter"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/seethroughlab/familliar-sub003/internal/tasks"
	"github.com/seethroughlab/familliar-sub003/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// DownloadPlaylist queues a playlist download and follows it to completion.
func (r *Runner) DownloadPlaylist(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id argument is required", shared.ErrMissingArgument)
	}

	return r.runDownload(ctx, cmd, func(ctx context.Context, engine *tasks.DownloadEngine) (*downloads.Job, error) {
		return engine.QueuePlaylist(ctx, playlistID)
	})
}

// DownloadAlbum queues an album download and follows it to completion.
func (r *Runner) DownloadAlbum(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.StringArg("id")
	if albumID == "" {
		return fmt.Errorf("%w: album id argument is required", shared.ErrMissingArgument)
	}

	return r.runDownload(ctx, cmd, func(ctx context.Context, engine *tasks.DownloadEngine) (*downloads.Job, error) {
		return engine.QueueAlbum(ctx, albumID)
	})
}

// DownloadLiked queues the liked-songs collection and follows it to completion.
func (r *Runner) DownloadLiked(ctx context.Context, cmd *cli.Command) error {
	return r.runDownload(ctx, cmd, func(ctx context.Context, engine *tasks.DownloadEngine) (*downloads.Job, error) {
		return engine.QueueLiked(ctx)
	})
}

// runDownload builds an in-process scheduler, queues one collection
// through it, and follows the job until it reaches a terminal status.
// An interrupt cancels the job rather than the transfer, so the track
// in flight finishes before the job stops.
func (r *Runner) runDownload(ctx context.Context, cmd *cli.Command, queue func(context.Context, *tasks.DownloadEngine) (*downloads.Job, error)) error {
	useJSON := cmd.Bool("json")
	useUI := cmd.Bool("ui")
	manifestPath := cmd.String("manifest")
	quiet := cmd.Bool("plain") || useJSON || useUI

	if useUI {
		// Redirect logs to file to avoid interfering with TUI rendering.
		// The scheduler is built afterwards so its components log there too.
		fileLogger, logFile, err := shared.NewFileLogger("familliar-ui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer logFile.Close()
		r.SetLogger(fileLogger)
	}

	sched, err := r.buildScheduler(cmd.String("dir"))
	if err != nil {
		return err
	}
	defer sched.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The dispatcher gets its own context so an interrupt never aborts a
	// transfer mid-file. The signal cancels the job instead and the
	// dispatcher stops at the next track boundary.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	events, unsubscribe := sched.registry.Subscribe()
	defer unsubscribe()

	job, err := queue(ctx, sched.engine)
	if err != nil {
		return err
	}

	if !quiet {
		r.writePlain("→ Queued %s: %s (%d tracks)\n", job.ID, job.Name, len(job.ResourceIDs))
	}

	go func() {
		<-ctx.Done()
		stop()
		sched.registry.Cancel(job.ID)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return sched.dispatcher.Run(gctx)
	})

	var final *downloads.Job
	if useUI {
		finalCh := make(chan *downloads.Job, 1)
		go func() {
			finalCh <- r.followJob(events, job, true)
		}()

		p := tea.NewProgram(ui.NewModel(sched.registry))
		if _, err := p.Run(); err != nil {
			cancelRun()
			g.Wait()
			return fmt.Errorf("error running monitor: %w", err)
		}

		select {
		case final = <-finalCh:
		default:
			r.writePlain("Monitor closed, waiting for the download to finish (ctrl+c to cancel)...\n")
			final = <-finalCh
		}
	} else {
		final = r.followJob(events, job, quiet)
	}

	cancelRun()
	if err := g.Wait(); err != nil {
		return err
	}

	summary := sched.engine.Summarize(final)

	if manifestPath != "" {
		saved, err := formatter.WriteSessionManifest(summary, manifestPath)
		if err != nil {
			r.logger.Warn("failed to write manifest", "error", err)
		} else {
			r.logger.Info("manifest saved", "file", saved)
		}
	}

	if useJSON {
		if err := r.writeJSON(summary, true); err != nil {
			return err
		}
	} else {
		r.writeSummary(summary, final)
	}

	if final.Status == downloads.StatusFailed {
		return fmt.Errorf("%w: %s", shared.ErrDownloadFailed, final.Err)
	}

	return nil
}

// followJob consumes registry events until the job reaches a terminal
// status and returns the final snapshot. Unless quiet is set it prints
// a line per track as the dispatcher works through the collection.
func (r *Runner) followJob(events <-chan downloads.Event, job *downloads.Job, quiet bool) *downloads.Job {
	last := job
	started := false
	current := ""
	completed := 0
	failed := 0

	for event := range events {
		if event.Job == nil || event.Job.ID != job.ID {
			continue
		}
		if event.Type == downloads.EventRemoved {
			return event.Job
		}

		next := event.Job
		last = next

		if !quiet {
			if next.Status == downloads.StatusDownloading && !started {
				started = true
				completed = len(next.CompletedIDs)
				if completed > 0 {
					r.writePlain("✓ %d track(s) already offline\n", completed)
				}
			}

			if started {
				if next.CurrentResourceID != "" && next.CurrentResourceID != current {
					current = next.CurrentResourceID
					r.writePlain("📥 %s (%d/%d)\n", current, completed+failed+1, len(next.ResourceIDs))
				}
				for completed < len(next.CompletedIDs) {
					r.writePlain("   ✓ %s\n", next.CompletedIDs[completed])
					completed++
				}
				for failed < len(next.FailedIDs) {
					r.writePlain("   ✗ %s\n", next.FailedIDs[failed])
					failed++
				}
			}
		}

		if next.Terminal() {
			return next
		}
	}

	return last
}

// writeSummary prints the closing block for a download session.
func (r *Runner) writeSummary(summary *tasks.SessionSummary, final *downloads.Job) {
	var title string
	switch final.Status {
	case downloads.StatusCompleted:
		title = "Download Complete!"
	case downloads.StatusCancelled:
		title = "Download Cancelled"
	case downloads.StatusFailed:
		title = "Download Failed"
	default:
		title = "Download Finished"
	}

	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Collection: %s (%s)\n", summary.Name, summary.JobID)
	r.writePlain("Requested: %d tracks\n", summary.Requested)
	r.writePlain("Already offline: %d\n", summary.Cached)
	r.writePlain("Downloaded: %d\n", summary.Downloaded)

	if summary.Failed > 0 {
		r.writePlain("Failed: %d\n", summary.Failed)
	}
	if summary.Pending > 0 {
		r.writePlain("Not attempted: %d\n", summary.Pending)
	}
	if summary.Error != "" {
		r.writePlain("Error: %s\n", summary.Error)
	}

	if len(final.FailedIDs) > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, id := range final.FailedIDs {
			r.writePlain("  - %s\n", id)
		}
	}
}
