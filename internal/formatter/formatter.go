// package formatter renders download jobs for the CLI and exports the offline library to various formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/repositories"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/seethroughlab/familliar-sub003/internal/tasks"
)

// FormatJobLine renders one job as a single status line for plain CLI
// output.
func FormatJobLine(job *downloads.Job) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s] %s %d/%d",
		job.ID, job.Status, job.Name, len(job.CompletedIDs), len(job.ResourceIDs))

	if len(job.FailedIDs) > 0 {
		fmt.Fprintf(&b, " (%d failed)", len(job.FailedIDs))
	}
	if job.Status == downloads.StatusDownloading && job.CurrentResourceID != "" {
		fmt.Fprintf(&b, " downloading %s %d%%", job.CurrentResourceID, job.CurrentProgress)
	}
	if job.Status == downloads.StatusFailed && job.Err != "" {
		fmt.Fprintf(&b, " error: %s", job.Err)
	}

	return b.String()
}

// RenderJobTable renders jobs as an aligned table, one row per job in
// the given order.
func RenderJobTable(jobs []*downloads.Job) string {
	if len(jobs) == 0 {
		return "No download jobs.\n"
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tNAME\tDONE\tFAILED\tCURRENT")
	for _, job := range jobs {
		current := ""
		if job.Status == downloads.StatusDownloading && job.CurrentResourceID != "" {
			current = fmt.Sprintf("%s (%d%%)", job.CurrentResourceID, job.CurrentProgress)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			job.ID, job.Kind, job.Status, job.Name,
			len(job.CompletedIDs), len(job.ResourceIDs), len(job.FailedIDs), current)
	}

	w.Flush()
	return buf.String()
}

// ExportLibraryToCSV converts offline index entries to CSV with columns: ID, Title, Artist, Album, Duration, Path, Bytes, Downloaded At
func ExportLibraryToCSV(entries []repositories.OfflineEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Path", "Bytes", "Downloaded At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.Track.ID,
			entry.Track.Title,
			entry.Track.Artist,
			entry.Track.Album,
			strconv.Itoa(entry.Track.Duration),
			entry.Path,
			strconv.FormatInt(entry.Bytes, 10),
			entry.DownloadedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportLibraryToMarkdown converts offline index entries to a Markdown listing
func ExportLibraryToMarkdown(entries []repositories.OfflineEntry) ([]byte, error) {
	var buf bytes.Buffer

	var totalBytes int64
	for _, entry := range entries {
		totalBytes += entry.Bytes
	}

	buf.WriteString("# Offline Library\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(entries)))
	buf.WriteString(fmt.Sprintf("**Size**: %s\n\n", shared.FormatBytes(totalBytes)))

	buf.WriteString("## Tracks\n\n")
	for i, entry := range entries {
		duration := shared.FormatDuration(entry.Track.Duration)
		albumPart := ""
		if entry.Track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", entry.Track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, entry.Track.Artist, entry.Track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// WriteLibraryCSV exports the offline library to a CSV file.
//
// Defaults to library_tracks.csv as the filename.
func WriteLibraryCSV(entries []repositories.OfflineEntry, path string) (string, error) {
	if path == "" {
		path = "library_tracks.csv"
	}

	data, err := ExportLibraryToCSV(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// WriteLibraryMarkdown exports the offline library to a Markdown file.
//
// Defaults to library.md as the filename.
func WriteLibraryMarkdown(entries []repositories.OfflineEntry, path string) (string, error) {
	if path == "" {
		path = "library.md"
	}

	data, err := ExportLibraryToMarkdown(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return path, nil
}

// WriteLibraryJSON exports the offline library as pretty JSON.
//
// Defaults to library.json as the filename.
func WriteLibraryJSON(entries []repositories.OfflineEntry, path string) (string, error) {
	if path == "" {
		path = "library.json"
	}

	data, err := shared.MarshalJSON(entries, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}

// WriteSessionManifest writes a download session summary as pretty JSON.
//
// Defaults to {job id}_manifest.json with separators made filename-safe.
func WriteSessionManifest(summary *tasks.SessionSummary, path string) (string, error) {
	if path == "" {
		safe := strings.NewReplacer(":", "_", "/", "_").Replace(summary.JobID)
		path = safe + "_manifest.json"
	}

	data, err := shared.MarshalJSON(summary, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}
