package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/seethroughlab/familliar-sub003/internal/formatter"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList prints every downloaded track recorded in the offline index.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, index, err := r.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := index.Entries()
	if err != nil {
		return fmt.Errorf("failed to read offline index: %w", err)
	}

	if useJSON {
		return r.writeJSON(entries, pretty)
	}

	if len(entries) == 0 {
		return r.writePlain("No tracks downloaded yet. Try 'familliar download liked'.\n")
	}

	r.writePlain("Found %d downloaded track(s):\n\n", len(entries))

	var total int64
	for i, entry := range entries {
		r.writePlain("%d. %s - %s", i+1, entry.Track.Artist, entry.Track.Title)
		if entry.Track.Album != "" {
			r.writePlain(" (%s)", entry.Track.Album)
		}
		r.writePlain("\n")
		r.writePlain("   Path: %s\n", entry.Path)
		r.writePlain("   Size: %s\n", shared.FormatBytes(entry.Bytes))
		total += entry.Bytes
	}

	r.writePlain("\nTotal: %s on disk\n", shared.FormatBytes(total))
	return nil
}

// LibraryExport writes the offline library to CSV, Markdown, or JSON.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	db, index, err := r.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := index.Entries()
	if err != nil {
		return fmt.Errorf("failed to read offline index: %w", err)
	}

	var saved string
	switch strings.ToLower(format) {
	case "csv":
		saved, err = formatter.WriteLibraryCSV(entries, output)
	case "markdown", "md":
		saved, err = formatter.WriteLibraryMarkdown(entries, output)
	case "json":
		saved, err = formatter.WriteLibraryJSON(entries, output)
	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, markdown, or json)", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	r.logger.Info("library exported", "format", format, "file", saved)
	return r.writePlain("✓ Library exported to %s (%d tracks)\n", saved, len(entries))
}
