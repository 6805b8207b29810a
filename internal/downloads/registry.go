package downloads

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// EventType distinguishes registry notifications.
type EventType int

const (
	// EventUpdated fires whenever a job record is replaced: submission,
	// status changes, per-item results, and progress updates.
	EventUpdated EventType = iota
	// EventRemoved fires when a finished job is swept out of the table.
	EventRemoved
)

func (e EventType) String() string {
	switch e {
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText renders the event type as its string tag.
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses an event type from its string tag.
func (e *EventType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "updated":
		*e = EventUpdated
	case "removed":
		*e = EventRemoved
	default:
		return fmt.Errorf("%w: unknown event type %q", shared.ErrInvalidArgument, text)
	}
	return nil
}

// Event describes one committed change to the registry. Job is a
// snapshot; receivers may hold it without copying.
type Event struct {
	Type EventType `json:"type"`
	Job  *Job      `json:"job"`
}

// Default grace windows before finished jobs disappear from the table.
const (
	DefaultRetainCompleted = 5 * time.Second
	DefaultRetainCancelled = 2 * time.Second

	defaultEventBuffer = 64
)

// Options configures a Registry.
type Options struct {
	RetainCompleted time.Duration // grace window for completed and failed jobs
	RetainCancelled time.Duration // grace window for cancelled jobs
	EventBuffer     int           // per-subscriber channel capacity
	Logger          *log.Logger
}

// SubmitRequest describes a collection to download.
type SubmitRequest struct {
	ID          string
	Kind        Kind
	Name        string
	ResourceIDs []string
}

// Registry is the in-memory table of download jobs. All reads return
// point-in-time snapshots; every mutation replaces the whole job record
// under the registry lock and notifies subscribers.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string // submission order, swept entries removed
	active  string   // id of the job currently holding the download slot
	subs    map[int]chan Event
	nextSub int
	timers  map[string]*time.Timer
	wake    chan struct{}
	opts    Options
	logger  *log.Logger
	closed  bool
}

// NewRegistry creates a Registry, applying defaults for any zero option.
func NewRegistry(opts Options) *Registry {
	if opts.RetainCompleted <= 0 {
		opts.RetainCompleted = DefaultRetainCompleted
	}
	if opts.RetainCancelled <= 0 {
		opts.RetainCancelled = DefaultRetainCancelled
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Registry{
		jobs:   make(map[string]*Job),
		subs:   make(map[int]chan Event),
		timers: make(map[string]*time.Timer),
		wake:   make(chan struct{}, 1),
		opts:   opts,
		logger: opts.Logger,
	}
}

// Submit queues a new download job. Submitting an id that already has a
// live (queued or downloading) job is a no-op returning the existing
// record, so repeated requests for the same collection cannot stack. An
// id whose previous job finished is treated as a fresh submission, even
// while the old record lingers in its grace window.
func (r *Registry) Submit(req SubmitRequest) (*Job, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("%w: job id must not be empty", shared.ErrInvalidInput)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, shared.ErrRegistryClosed
	}

	if existing, ok := r.jobs[req.ID]; ok {
		if !existing.Terminal() {
			snap := existing.Clone()
			r.mu.Unlock()
			r.logger.Debug("duplicate submit ignored", "job", req.ID, "status", snap.Status)
			return snap, nil
		}
		// Finished job still in its grace window; the fresh submission
		// replaces it.
		r.dropLocked(req.ID)
	}

	job := newJob(req.ID, req.Kind, req.Name, req.ResourceIDs)
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	snap := job.Clone()
	r.notifyLocked(EventUpdated, snap)
	r.mu.Unlock()

	r.logger.Info("job queued", "job", job.ID, "kind", job.Kind, "items", len(job.ResourceIDs))
	r.signal()
	return snap, nil
}

// Cancel marks a job cancelled. The transition is immediate: by the
// time Cancel returns, reads observe the terminal state and the job's
// token is triggered so the worker stops at the next item boundary.
// Cancelling an already finished job is a no-op returning its snapshot.
func (r *Registry) Cancel(id string) (*Job, error) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}

	if job.Terminal() {
		snap := job.Clone()
		r.mu.Unlock()
		return snap, nil
	}

	job.cancel.Cancel()

	next := job.Clone()
	next.Status = StatusCancelled
	next.CurrentResourceID = ""
	next.CurrentProgress = 0
	r.jobs[id] = next
	r.scheduleSweepLocked(id, r.opts.RetainCancelled)
	snap := next.Clone()
	r.notifyLocked(EventUpdated, snap)
	r.mu.Unlock()

	r.logger.Info("job cancelled", "job", id)
	r.signal()
	return snap, nil
}

// Get returns a snapshot of the job with the given id.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// GetActive returns a snapshot of the job currently downloading, if any.
func (r *Registry) GetActive() (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if job, ok := r.jobs[id]; ok && job.Status == StatusDownloading {
			return job.Clone(), true
		}
	}
	return nil, false
}

// List returns snapshots of every job in submission order.
func (r *Registry) List() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Job, 0, len(r.order))
	for _, id := range r.order {
		if job, ok := r.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

// Subscribe registers an observer for registry events. The returned
// cancel function releases the subscription and closes the channel.
// Delivery is best effort: a subscriber that falls behind its buffer
// misses intermediate updates rather than stalling the scheduler.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	ch := make(chan Event, r.opts.EventBuffer)
	r.subs[id] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Close stops all retention timers and closes every subscription.
// Subsequent Submit calls fail with [shared.ErrRegistryClosed].
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// signal wakes the dispatcher without blocking.
func (r *Registry) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// notifyLocked fans an event out to all subscribers. Callers must hold
// the registry lock and pass a snapshot, never a live record.
func (r *Registry) notifyLocked(t EventType, job *Job) {
	ev := Event{Type: t, Job: job}
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// scheduleSweepLocked arms the retention timer for a finished job.
func (r *Registry) scheduleSweepLocked(id string, after time.Duration) {
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	r.timers[id] = time.AfterFunc(after, func() { r.sweep(id) })
}

// sweep drops a finished job once its grace window has passed. A job
// resubmitted in the meantime is left alone.
func (r *Registry) sweep(id string) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || !job.Terminal() {
		r.mu.Unlock()
		return
	}

	r.dropLocked(id)
	snap := job.Clone()
	r.notifyLocked(EventRemoved, snap)
	r.mu.Unlock()

	r.logger.Debug("job swept", "job", id, "status", snap.Status)
}

// dropLocked removes a job, its retention timer, and its order entry.
func (r *Registry) dropLocked(id string) {
	delete(r.jobs, id)
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	for i, jid := range r.order {
		if jid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// claimNext hands the oldest queued job to the dispatcher and marks the
// download slot taken. Returns false when the slot is busy or nothing
// is queued.
func (r *Registry) claimNext() (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.active != "" {
		return nil, false
	}

	for _, id := range r.order {
		job, ok := r.jobs[id]
		if !ok || job.Status != StatusQueued {
			continue
		}
		r.active = id
		return job.Clone(), true
	}
	return nil, false
}

// release frees the download slot after a job has been processed.
func (r *Registry) release(id string) {
	r.mu.Lock()
	if r.active == id {
		r.active = ""
	}
	r.mu.Unlock()
}

// beginDownloading moves a claimed job into the downloading state,
// seeding its completed list with the items the library already holds.
// Returns false if the job was cancelled before work started.
func (r *Registry) beginDownloading(id string, alreadyCached []string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || !canTransition(job.Status, StatusDownloading) {
		return nil, false
	}

	next := job.Clone()
	next.Status = StatusDownloading
	next.CompletedIDs = append([]string(nil), alreadyCached...)
	r.jobs[id] = next
	snap := next.Clone()
	r.notifyLocked(EventUpdated, snap)
	return snap, true
}

// completeVacuous finishes a job whose every item was already cached.
// The downloader is never involved; the job moves straight from queued
// to completed with its full resource list marked done.
func (r *Registry) completeVacuous(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || !canTransition(job.Status, StatusCompleted) {
		return nil, false
	}

	next := job.Clone()
	next.Status = StatusCompleted
	next.CompletedIDs = append([]string(nil), next.ResourceIDs...)
	r.jobs[id] = next
	r.scheduleSweepLocked(id, r.opts.RetainCompleted)
	snap := next.Clone()
	r.notifyLocked(EventUpdated, snap)
	return snap, true
}

// failJob moves a job to the failed state with the given message. Used
// when the availability check errors out and when a run ends with no
// successful downloads.
func (r *Registry) failJob(id, msg string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || !canTransition(job.Status, StatusFailed) {
		return nil, false
	}

	next := job.Clone()
	next.Status = StatusFailed
	next.Err = msg
	next.CurrentResourceID = ""
	next.CurrentProgress = 0
	r.jobs[id] = next
	r.scheduleSweepLocked(id, r.opts.RetainCompleted)
	snap := next.Clone()
	r.notifyLocked(EventUpdated, snap)
	return snap, true
}

// setCurrent marks the item about to be fetched and resets its progress.
func (r *Registry) setCurrent(id, resourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status != StatusDownloading {
		return false
	}

	next := job.Clone()
	next.CurrentResourceID = resourceID
	next.CurrentProgress = 0
	r.jobs[id] = next
	r.notifyLocked(EventUpdated, next.Clone())
	return true
}

// setProgress records percent progress for the in-flight item. Updates
// for an item that is no longer current, or for a job no longer
// downloading, are dropped.
func (r *Registry) setProgress(id, resourceID string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status != StatusDownloading || job.CurrentResourceID != resourceID || job.CurrentProgress == percent {
		return
	}

	next := job.Clone()
	next.CurrentProgress = percent
	r.jobs[id] = next
	r.notifyLocked(EventUpdated, next.Clone())
}

// recordResult appends one item's outcome. The result lists are
// append-only and survive cancellation, so an item that finished while
// Cancel was being processed still counts.
func (r *Registry) recordResult(id, resourceID string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}

	next := job.Clone()
	if failed {
		next.FailedIDs = append(next.FailedIDs, resourceID)
	} else {
		next.CompletedIDs = append(next.CompletedIDs, resourceID)
	}
	if next.CurrentResourceID == resourceID {
		next.CurrentResourceID = ""
		next.CurrentProgress = 0
	}
	r.jobs[id] = next
	r.notifyLocked(EventUpdated, next.Clone())
}

// finalize closes out a job whose item loop has run to the end. A run
// where every attempted item failed counts as a failed job; any other
// mix is completed. Jobs cancelled mid-run keep their cancelled state.
func (r *Registry) finalize(id string, cachedCount int) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	if job.Status != StatusDownloading {
		return job.Clone(), false
	}

	next := job.Clone()
	next.CurrentResourceID = ""
	next.CurrentProgress = 0

	succeeded := len(next.CompletedIDs) - cachedCount
	if len(next.FailedIDs) > 0 && succeeded == 0 {
		next.Status = StatusFailed
		next.Err = fmt.Sprintf("%d item(s) failed to download", len(next.FailedIDs))
	} else {
		next.Status = StatusCompleted
	}

	r.jobs[id] = next
	r.scheduleSweepLocked(id, r.opts.RetainCompleted)
	snap := next.Clone()
	r.notifyLocked(EventUpdated, snap)
	return snap, true
}
