package downloads

import (
	"fmt"
	"sync"
	"time"

	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// Kind tags what a job's collection represents. It is display metadata
// only; the scheduler never branches on it.
type Kind int

const (
	KindPlaylist Kind = iota
	KindAlbum
	KindLiked
)

func (k Kind) String() string {
	switch k {
	case KindPlaylist:
		return "playlist"
	case KindAlbum:
		return "album"
	case KindLiked:
		return "liked"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its string tag for JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind from its string tag.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a string tag into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "playlist":
		return KindPlaylist, nil
	case "album":
		return KindAlbum, nil
	case "liked":
		return KindLiked, nil
	default:
		return 0, fmt.Errorf("%w: unknown job kind %q", shared.ErrInvalidArgument, s)
	}
}

// Status is the lifecycle state of a download job.
type Status int

const (
	StatusQueued Status = iota
	StatusDownloading
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusDownloading:
		return "downloading"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final. Terminal jobs never
// change again and are swept after their grace window.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	case StatusQueued, StatusDownloading:
		return false
	default:
		return false
	}
}

// MarshalText renders the status as its string tag for JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status from its string tag.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a string tag into a Status.
func ParseStatus(str string) (Status, error) {
	switch str {
	case "queued":
		return StatusQueued, nil
	case "downloading":
		return StatusDownloading, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return 0, fmt.Errorf("%w: unknown job status %q", shared.ErrInvalidArgument, str)
	}
}

// allowedTransitions encodes the job lifecycle. Movement is one way:
// queued jobs may start downloading or jump straight to a terminal
// state, downloading jobs may only finish, and terminal states admit
// nothing.
var allowedTransitions = map[Status]map[Status]bool{
	StatusQueued: {
		StatusDownloading: true,
		StatusCompleted:   true,
		StatusFailed:      true,
		StatusCancelled:   true,
	},
	StatusDownloading: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition reports whether a job may move between the two statuses.
func canTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// CancelToken signals cooperative cancellation for a single job. The
// token lives on the job record and is shared by every snapshot of it,
// so the worker observes cancellation no matter which copy it holds.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

// NewCancelToken returns an untriggered token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel triggers the token. Safe to call more than once.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether the token has been triggered.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done exposes the token's completion channel for select loops.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// Job tracks one bulk download request through its lifecycle. Snapshots
// handed out by the registry are deep copies; only the cancel token is
// shared between them.
type Job struct {
	ID                string    `json:"id"`
	Kind              Kind      `json:"kind"`
	Name              string    `json:"name"`
	ResourceIDs       []string  `json:"resource_ids"`
	CompletedIDs      []string  `json:"completed_ids"`
	FailedIDs         []string  `json:"failed_ids"`
	CurrentResourceID string    `json:"current_resource_id,omitempty"`
	CurrentProgress   int       `json:"current_progress"`
	Status            Status    `json:"status"`
	StartedAt         time.Time `json:"started_at"`
	Err               string    `json:"error,omitempty"`

	cancel *CancelToken
}

func newJob(id string, kind Kind, name string, resourceIDs []string) *Job {
	return &Job{
		ID:           id,
		Kind:         kind,
		Name:         name,
		ResourceIDs:  append([]string(nil), resourceIDs...),
		CompletedIDs: []string{},
		FailedIDs:    []string{},
		Status:       StatusQueued,
		StartedAt:    time.Now(),
		cancel:       NewCancelToken(),
	}
}

// Token returns the job's cancellation token. Nil for jobs decoded from
// JSON rather than created by a registry.
func (j *Job) Token() *CancelToken {
	return j.cancel
}

// Terminal reports whether the job reached a final status.
func (j *Job) Terminal() bool {
	return j.Status.Terminal()
}

// Pending returns how many of the job's items are in neither result list.
func (j *Job) Pending() int {
	return len(j.ResourceIDs) - len(j.CompletedIDs) - len(j.FailedIDs)
}

// Clone returns a deep copy of the job sharing only the cancel token.
func (j *Job) Clone() *Job {
	c := *j
	c.ResourceIDs = append([]string(nil), j.ResourceIDs...)
	c.CompletedIDs = append([]string(nil), j.CompletedIDs...)
	c.FailedIDs = append([]string(nil), j.FailedIDs...)
	return &c
}
