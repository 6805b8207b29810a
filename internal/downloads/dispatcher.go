package downloads

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// Availability reports which resources the local library already holds.
// The scheduler consults it once per job, before any transfer starts.
type Availability interface {
	CachedResourceIDs(ctx context.Context) ([]string, error)
}

// Downloader transfers and persists a single resource. Implementations
// report coarse progress through onProgress with values in [0, 100] and
// leave cancellation to the scheduler: a job is only ever stopped
// between items, never by interrupting a Fetch in flight.
type Downloader interface {
	Fetch(ctx context.Context, resourceID string, onProgress func(percent int)) error
}

// DispatcherOpts configures a Dispatcher.
type DispatcherOpts struct {
	Logger *log.Logger
}

// Dispatcher drains the registry queue. It runs at most one job, and
// within that job at most one item, at any time.
type Dispatcher struct {
	registry *Registry
	avail    Availability
	dl       Downloader
	logger   *log.Logger
}

// NewDispatcher creates a Dispatcher bound to a registry, an
// availability source, and a downloader.
func NewDispatcher(registry *Registry, avail Availability, dl Downloader, opts DispatcherOpts) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		registry: registry,
		avail:    avail,
		dl:       dl,
		logger:   logger,
	}
}

// Run processes queued jobs until ctx is cancelled. It blocks, so
// callers start it on its own goroutine or errgroup.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped")
			return nil
		case <-d.registry.wake:
			d.drain(ctx)
		}
	}
}

// drain claims and processes queued jobs in submission order until the
// queue is empty.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, ok := d.registry.claimNext()
		if !ok {
			return
		}

		d.process(ctx, job)
		d.registry.release(job.ID)
	}
}

// process runs a single claimed job to a terminal state: split the
// resource list against the availability set, skip the download phase
// entirely when nothing remains, otherwise fetch the missing items one
// by one, checking the cancel token at every item boundary.
func (d *Dispatcher) process(ctx context.Context, job *Job) {
	logger := d.logger.With("job", job.ID)
	logger.Info("starting job", "kind", job.Kind, "name", job.Name, "items", len(job.ResourceIDs))

	cached, err := d.avail.CachedResourceIDs(ctx)
	if err != nil {
		logger.Error("availability check failed", "error", err)
		d.registry.failJob(job.ID, fmt.Sprintf("checking local library: %v", err))
		return
	}

	have := make(map[string]bool, len(cached))
	for _, id := range cached {
		have[id] = true
	}

	var alreadyCached, remaining []string
	for _, id := range job.ResourceIDs {
		if have[id] {
			alreadyCached = append(alreadyCached, id)
		} else {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == 0 {
		if snap, ok := d.registry.completeVacuous(job.ID); ok {
			logger.Info("job complete, nothing to download", "cached", len(snap.CompletedIDs))
		}
		return
	}

	if _, ok := d.registry.beginDownloading(job.ID, alreadyCached); !ok {
		// Cancelled between submission and claim.
		return
	}

	token := job.Token()
	for _, resourceID := range remaining {
		if token.Cancelled() {
			logger.Info("job cancelled, stopping at item boundary")
			return
		}
		if ctx.Err() != nil {
			return
		}

		d.registry.setCurrent(job.ID, resourceID)
		err := d.dl.Fetch(ctx, resourceID, func(percent int) {
			d.registry.setProgress(job.ID, resourceID, percent)
		})
		if err != nil {
			logger.Warn("item failed", "item", resourceID, "error", err)
			d.registry.recordResult(job.ID, resourceID, true)
			continue
		}
		d.registry.recordResult(job.ID, resourceID, false)
	}

	if snap, ok := d.registry.finalize(job.ID, len(alreadyCached)); ok {
		logger.Info("job finished",
			"status", snap.Status,
			"completed", len(snap.CompletedIDs),
			"failed", len(snap.FailedIDs),
		)
	}
}
