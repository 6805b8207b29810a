package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/formatter"
	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/urfave/cli/v3"
)

// daemonAPI returns an API client bound to the local daemon started by
// `familliar serve`, as opposed to r.api which targets the library proxy.
func (r *Runner) daemonAPI() *services.APIService {
	return services.NewAPIService("http://"+r.config.Server.Addr(), r.httpClient)
}

// JobsList lists the download jobs known to the running daemon.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	resp, err := r.daemonAPI().Get(ctx, "/api/downloads")
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? (familliar serve): %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if useJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	var jobs []*downloads.Job
	if err := json.Unmarshal(resp.Body, &jobs); err != nil {
		return fmt.Errorf("%w: unexpected response: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("%s", formatter.RenderJobTable(jobs))
}

// JobsGet shows one download job by ID.
func (r *Runner) JobsGet(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.StringArg("id")
	if jobID == "" {
		return fmt.Errorf("%w: job id argument is required", shared.ErrMissingArgument)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	resp, err := r.daemonAPI().Get(ctx, "/api/downloads/"+jobID)
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? (familliar serve): %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if useJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	var job downloads.Job
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return fmt.Errorf("%w: unexpected response: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("%s\n", formatter.FormatJobLine(&job))

	if len(job.CompletedIDs) > 0 {
		r.writePlain("\nCompleted:\n")
		for _, id := range job.CompletedIDs {
			r.writePlain("  ✓ %s\n", id)
		}
	}
	if len(job.FailedIDs) > 0 {
		r.writePlain("\nFailed:\n")
		for _, id := range job.FailedIDs {
			r.writePlain("  ✗ %s\n", id)
		}
	}
	if job.Err != "" {
		r.writePlain("\nError: %s\n", job.Err)
	}

	return nil
}

// JobsCancel cancels a queued or running download job on the daemon.
func (r *Runner) JobsCancel(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.StringArg("id")
	if jobID == "" {
		return fmt.Errorf("%w: job id argument is required", shared.ErrMissingArgument)
	}

	resp, err := r.daemonAPI().Delete(ctx, "/api/downloads/"+jobID)
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? (familliar serve): %v", shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	var job downloads.Job
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return fmt.Errorf("%w: unexpected response: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("cancel requested", "job", job.ID, "status", job.Status)
	return r.writePlain("✓ Cancelled %s (status: %s)\n", job.ID, job.Status)
}

// JobsFollow streams job updates from the daemon's event endpoint,
// printing one line per update until interrupted.
func (r *Runner) JobsFollow(ctx context.Context, cmd *cli.Command) error {
	filter := cmd.StringArg("id")

	streamURL := "http://" + r.config.Server.Addr() + "/api/downloads/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? (familliar serve): %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	r.writePlain("Following download events (ctrl+c to stop)...\n\n")

	event := ""
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var job downloads.Job
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &job); err != nil {
				r.logger.Warn("skipping malformed event payload", "error", err)
				continue
			}
			if filter != "" && job.ID != filter {
				continue
			}
			if event == downloads.EventRemoved.String() {
				r.writePlain("• forgotten %s\n", job.ID)
				continue
			}
			r.writePlain("%s\n", formatter.FormatJobLine(&job))
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: event stream interrupted: %v", shared.ErrAPIRequest, err)
	}

	return nil
}
