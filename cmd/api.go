package main

import (
	"context"
	"fmt"
	"os"

	"github.com/seethroughlab/familliar-sub003/internal/services"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/urfave/cli/v3"
)

// applyCurlHeaders replays headers captured from a browser session
// (DevTools "Copy as cURL") on the API client.
func (r *Runner) applyCurlHeaders(curlFile string) error {
	if curlFile == "" {
		return nil
	}

	curlHeaders, err := shared.ParseCurlFile(curlFile)
	if err != nil {
		return fmt.Errorf("failed to parse cURL file: %w", err)
	}

	r.api.SetHeaders(curlHeaders.HeaderMap())
	r.logger.Info("replaying captured browser headers", "count", len(curlHeaders.Headers))
	return nil
}

// APIGet makes a direct GET request to the proxy
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if err := r.applyCurlHeaders(cmd.String("curl-file")); err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if useJSON {
		if resp.IsJSON {
			return r.writeJSON(resp.JSONData, false)
		}
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
		return nil
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the proxy
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if err := r.applyCurlHeaders(cmd.String("curl-file")); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches and displays the full proxy state.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("dumping proxy state")
	r.writePlain("Fetching proxy state...\n\n")

	type DumpData struct {
		Health     any   `json:"health"`
		Playlists  any   `json:"playlists,omitempty"`
		LikedSongs any   `json:"liked_songs,omitempty"`
		Errors     []any `json:"errors,omitempty"`
	}

	dump := DumpData{
		Errors: []any{},
	}

	recordError := func(endpoint string, resp *services.APIResponse, err error) {
		if err == nil {
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint, "error": err.Error()})
		r.logger.Warn("failed to fetch "+endpoint, "error", err)
	}

	// Fetch health
	r.writePlain("📊 Fetching health status...\n")
	if resp, err := r.api.Get(ctx, "/health"); err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		dump.Health = resp.JSONData
	} else {
		recordError("/health", resp, err)
	}

	// Fetch library playlists
	r.writePlain("📝 Fetching playlists...\n")
	if resp, err := r.api.Get(ctx, "/api/library/playlists"); err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		dump.Playlists = resp.JSONData
	} else {
		recordError("/api/library/playlists", resp, err)
	}

	// Fetch liked songs
	r.writePlain("❤️  Fetching liked songs...\n")
	if resp, err := r.api.Get(ctx, "/api/library/liked"); err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		dump.LikedSongs = resp.JSONData
	} else {
		recordError("/api/library/liked", resp, err)
	}

	r.writePlain("\n✓ Dump complete\n\n")

	// Save to file if requested
	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	// Output to console
	return r.writeJSON(dump, pretty)
}
