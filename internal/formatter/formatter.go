// package formatter renders saved track listings as plain text, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/likeshuffle/internal/services"
	"github.com/desertthunder/likeshuffle/internal/shared"
)

// Format names an output format for [Render].
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or file extension. The empty string means [FormatText].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Export is a titled track listing.
type Export struct {
	Title   string
	Skipped int
	Tracks  []services.Track
}

// Render dispatches to the exporter for f.
func Render(f Format, export *Export) ([]byte, error) {
	switch f {
	case FormatText:
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts an Export to CSV with columns: ID, Name, Artists
//
// Multiple artists are joined with "; ".
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Artists"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{track.ID, track.Name, strings.Join(track.Artists, "; ")}
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

// ExportToMarkdown converts an Export to a numbered Markdown list under a heading.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	title := export.Title
	if title == "" {
		title = "Liked Songs"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	if export.Skipped > 0 {
		fmt.Fprintf(&buf, "**Skipped**: %d\n", export.Skipped)
	}
	buf.WriteString("\n")

	for i, track := range export.Tracks {
		if len(track.Artists) == 0 {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, track.Name)
			continue
		}
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToText writes one "* name" line per track.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	for _, track := range export.Tracks {
		fmt.Fprintf(&buf, "* %s\n", track.Name)
	}
	return buf.Bytes(), nil
}

// WriteExport renders export in format f to path, creating parent directories.
func WriteExport(f Format, export *Export, path string) error {
	data, err := Render(f, export)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return nil
}
