package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit     = 4.0
	defaultRetries       = 3
	defaultRetryCooldown = 500 * time.Millisecond
	defaultHTTPTimeout   = 60 * time.Second
)

// errTransient marks failures worth retrying: network errors and 5xx
// responses. Everything else fails the item immediately.
var errTransient = fmt.Errorf("transient download failure")

// Source provides the audio URL for a track. Implemented by
// services.ProxyService.
type Source interface {
	StreamURL(trackID string) string
}

// Recorder persists a finished download into the offline index.
// Implemented by repositories.OfflineIndex.
type Recorder interface {
	RecordDownload(trackID, path string, bytes int64) error
}

// Tagger writes metadata onto a downloaded audio file.
type Tagger interface {
	Tag(path, trackID string) error
}

// ClientOpts configures a transfer Client. Zero values fall back to the
// package defaults.
type ClientOpts struct {
	Dir           string
	RateLimit     float64
	Retries       int
	RetryCooldown time.Duration
	HTTPClient    *http.Client
	Tagger        Tagger
	Logger        *log.Logger
}

// Client fetches track audio from the proxy and persists it to the
// downloads directory. It implements downloads.Downloader.
type Client struct {
	source     Source
	recorder   Recorder
	tagger     Tagger
	dir        string
	retries    int
	cooldown   time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a transfer client writing into opts.Dir.
func NewClient(source Source, recorder Recorder, opts ClientOpts) *Client {
	if opts.Dir == "" {
		opts.Dir = "downloads"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.RetryCooldown <= 0 {
		opts.RetryCooldown = defaultRetryCooldown
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(os.Stderr)
	}

	return &Client{
		source:     source,
		recorder:   recorder,
		tagger:     opts.Tagger,
		dir:        opts.Dir,
		retries:    opts.Retries,
		cooldown:   opts.RetryCooldown,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// ProgressWriter wraps a writer and reports progress after each write.
type ProgressWriter struct {
	Writer   io.Writer
	Total    int64
	Written  int64
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Fetch downloads one track's audio and records it in the offline index.
// Progress is reported as 0-100 percent; an unknown content length reports
// only the final 100. A file already at the destination counts as success
// without touching the network.
func (c *Client) Fetch(ctx context.Context, resourceID string, onProgress func(percent int)) error {
	dest := c.destPath(resourceID)

	if info, err := os.Stat(dest); err == nil {
		c.logger.Debug("skipping existing file", "track", resourceID, "path", dest)
		if onProgress != nil {
			onProgress(100)
		}
		return c.record(resourceID, dest, info.Size())
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}

	var err error
	for tries := 0; tries < c.retries; tries++ {
		if err = c.limiter.Wait(ctx); err != nil {
			return err
		}

		err = c.download(ctx, resourceID, dest, onProgress)
		if err == nil {
			break
		}
		if !errors.Is(err, errTransient) || ctx.Err() != nil {
			break
		}

		c.logger.Warn("retrying download", "track", resourceID, "attempt", tries+1, "error", err)
		c.waitForRetry(ctx, tries)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDownloadFailed, resourceID, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDownloadFailed, resourceID, err)
	}

	if c.tagger != nil {
		if err := c.tagger.Tag(dest, resourceID); err != nil {
			c.logger.Warn("failed to tag file", "track", resourceID, "error", err)
		}
	}

	if onProgress != nil {
		onProgress(100)
	}

	return c.record(resourceID, dest, info.Size())
}

func (c *Client) download(ctx context.Context, resourceID, dest string, onProgress func(percent int)) error {
	streamURL := c.source.StreamURL(resourceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	temp := dest + ".part"
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer: file,
			Total:  resp.ContentLength,
			OnUpdate: func(written, total int64) {
				if total <= 0 {
					return
				}
				percent := int(written * 100 / total)
				if percent > 100 {
					percent = 100
				}
				onProgress(percent)
			},
		}
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		file.Close()
		os.Remove(temp)
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(temp, dest); err != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}

func (c *Client) record(resourceID, dest string, bytes int64) error {
	if c.recorder == nil {
		return nil
	}
	if err := c.recorder.RecordDownload(resourceID, dest, bytes); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

func (c *Client) destPath(resourceID string) string {
	// Proxy ids are opaque; keep them filesystem-safe.
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(resourceID)
	return filepath.Join(c.dir, name+".mp3")
}

func (c *Client) waitForRetry(ctx context.Context, tries int) {
	cooldown := time.Duration(float64(c.cooldown) * math.Pow(2, float64(tries)))
	select {
	case <-ctx.Done():
	case <-time.After(cooldown):
	}
}
