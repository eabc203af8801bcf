package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Statusf prints a progress message to stderr unless --quiet is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	if !cc.Flags.Quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Binary size units.
const (
	sizeKiB = 1 << 10
	sizeMiB = 1 << 20
	sizeGiB = 1 << 30
	sizeTiB = 1 << 40
)

// formatSize renders a byte count for tables (e.g. "1.2 GiB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeTiB:
		return fmt.Sprintf("%.1f TiB", float64(bytes)/sizeTiB)
	case bytes >= sizeGiB:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/sizeGiB)
	case bytes >= sizeMiB:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/sizeMiB)
	case bytes >= sizeKiB:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/sizeKiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime renders a timestamp compactly; the zero time is "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	if t.Year() == time.Now().Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// orDash substitutes "-" for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// printTable writes left-aligned columns separated by two spaces.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}
