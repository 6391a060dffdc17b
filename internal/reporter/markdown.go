package reporter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wharflab/stagewise/internal/advisor"
)

// MarkdownReporter emits a compact markdown table, suitable for CI job
// summaries and pull request comments.
type MarkdownReporter struct {
	writer io.Writer
}

// NewMarkdownReporter creates a markdown reporter writing to w.
func NewMarkdownReporter(w io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: w}
}

// Report implements Reporter.
func (r *MarkdownReporter) Report(suggestions []advisor.Suggestion, _ map[string][]byte, metadata Metadata) error {
	var buf bytes.Buffer

	buf.WriteString("## Image size suggestions\n\n")
	if len(suggestions) == 0 {
		buf.WriteString("No optimization suggestions.\n")
		_, err := r.writer.Write(buf.Bytes())
		return err
	}

	buf.WriteString("| Location | Category | Est. savings | Rationale |\n")
	buf.WriteString("|---|---|---|---|\n")
	for _, s := range suggestions {
		location := s.File
		if s.Line > 0 {
			location = fmt.Sprintf("%s:%d", s.File, s.Line)
		}
		savings := "~" + humanize.Bytes(uint64(s.SavingsBytes))
		if s.LowConfidence {
			savings += " *"
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
			escapeCell(location), s.Category, savings, escapeCell(s.Rationale))
	}

	fmt.Fprintf(&buf, "\n**Total estimated savings: ~%s** across %d stage(s).\n",
		humanize.Bytes(uint64(TotalSavings(suggestions))), metadata.StagesAnalyzed)
	if metadata.LowConfidenceLayers > 0 {
		buf.WriteString("\n\\* based on fallback estimates (low confidence)\n")
	}

	_, err := r.writer.Write(buf.Bytes())
	return err
}

// escapeCell keeps cell text from breaking the table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
