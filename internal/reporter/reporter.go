// Package reporter provides output formatters for analysis results.
//
// The package supports multiple output formats:
//   - text: Human-readable terminal output with colors and source snippets
//   - json: Machine-readable JSON output
//   - markdown: Concise markdown tables for CI summaries and AI agents
package reporter

import (
	"fmt"
	"io"
	"os"

	"github.com/wharflab/stagewise/internal/advisor"
)

// Metadata contains contextual information about the analysis run.
type Metadata struct {
	// FilesAnalyzed is the number of build descriptions analyzed.
	FilesAnalyzed int

	// StagesAnalyzed is the total number of stages across all files.
	StagesAnalyzed int

	// LayersEstimated is the total number of layers that were sized.
	LayersEstimated int

	// LowConfidenceLayers is how many of those carry fallback estimates.
	LowConfidenceLayers int
}

// Reporter formats and outputs optimization suggestions.
type Reporter interface {
	// Report writes suggestions to the configured output. The sources map
	// provides raw file content for snippet extraction, keyed by file path.
	Report(suggestions []advisor.Suggestion, sources map[string][]byte, metadata Metadata) error
}

// TotalSavings sums the estimated savings across suggestions.
func TotalSavings(suggestions []advisor.Suggestion) int64 {
	var total int64
	for _, s := range suggestions {
		total += s.SavingsBytes
	}
	return total
}

// Format represents an output format type.
type Format string

const (
	// FormatText is human-readable terminal output.
	FormatText Format = "text"
	// FormatJSON is machine-readable JSON output.
	FormatJSON Format = "json"
	// FormatMarkdown is concise markdown tables.
	FormatMarkdown Format = "markdown"
)

// ParseFormat parses a format string into a Format type.
// Returns an error if the format is unknown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format: %q (valid: text, json, markdown)", s)
	}
}

// Options configures reporter creation.
type Options struct {
	// Format specifies the output format.
	Format Format

	// Writer is the output destination.
	Writer io.Writer

	// Color enables/disables colored output (text format only).
	// nil means auto-detect.
	Color *bool

	// ShowSource enables source line snippets (text format only).
	ShowSource bool
}

// DefaultOptions returns sensible defaults for reporter options.
func DefaultOptions() Options {
	return Options{
		Format:     FormatText,
		Writer:     os.Stdout,
		Color:      nil, // auto-detect
		ShowSource: true,
	}
}

// New creates a reporter based on the format specified in options.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch opts.Format {
	case FormatText, "":
		return NewTextReporter(opts.Writer, TextOptions{
			Color:      opts.Color,
			ShowSource: opts.ShowSource,
		}), nil

	case FormatJSON:
		return NewJSONReporter(opts.Writer), nil

	case FormatMarkdown:
		return NewMarkdownReporter(opts.Writer), nil

	default:
		return nil, fmt.Errorf("unknown format: %q", opts.Format)
	}
}

// GetWriter returns an io.Writer for the given output path.
// Supports "stdout", "stderr", or file paths.
func GetWriter(path string) (io.Writer, func() error, error) {
	switch path {
	case "stdout", "":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating output file: %w", err)
		}
		return f, f.Close, nil
	}
}
