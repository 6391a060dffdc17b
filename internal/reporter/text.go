package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/wharflab/stagewise/internal/advisor"
)

// Styles for different parts of the output
var (
	categoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")) // Orange

	savingsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")) // Green

	fileLocStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")) // Light gray

	rationaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	lowConfidenceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")) // Gray

	summaryStyle = lipgloss.NewStyle().
			Bold(true)
)

// TextOptions configures the text reporter output.
type TextOptions struct {
	// Color enables/disables colored output. Default: auto-detect.
	Color *bool

	// ShowSource shows the source line each suggestion targets.
	ShowSource bool

	// ChromaStyle is the Chroma style name for snippet highlighting.
	ChromaStyle string
}

// TextReporter formats suggestions as styled terminal output.
type TextReporter struct {
	writer io.Writer
	opts   TextOptions
	color  bool
}

// NewTextReporter creates a text reporter writing to w.
func NewTextReporter(w io.Writer, opts TextOptions) *TextReporter {
	return &TextReporter{
		writer: w,
		opts:   opts,
		color:  resolveColor(w, opts.Color),
	}
}

// resolveColor decides whether to emit ANSI styling. Explicit settings win;
// otherwise color is used only on a real terminal with color support.
// termenv respects NO_COLOR and CLICOLOR_FORCE.
func resolveColor(w io.Writer, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Report implements Reporter.
func (r *TextReporter) Report(suggestions []advisor.Suggestion, sources map[string][]byte, metadata Metadata) error {
	var buf bytes.Buffer

	for _, s := range suggestions {
		r.writeSuggestion(&buf, s, sources)
	}
	r.writeSummary(&buf, suggestions, metadata)

	_, err := r.writer.Write(buf.Bytes())
	return err
}

func (r *TextReporter) writeSuggestion(buf *bytes.Buffer, s advisor.Suggestion, sources map[string][]byte) {
	location := s.File
	if s.Line > 0 {
		location = fmt.Sprintf("%s:%d", s.File, s.Line)
	}

	savings := "~" + humanize.Bytes(uint64(s.SavingsBytes))
	if s.LowConfidence {
		savings += " (low confidence)"
	}

	fmt.Fprintf(buf, "%s  %s  %s\n",
		r.render(fileLocStyle, location),
		r.render(categoryStyle, string(s.Category)),
		r.render(savingsStyle, savings),
	)
	fmt.Fprintf(buf, "  %s\n", r.render(rationaleStyle, s.Rationale))

	if r.opts.ShowSource && s.Line > 0 {
		if line, ok := sourceLine(sources[s.File], s.Line); ok {
			fmt.Fprintf(buf, "  %4d | %s\n", s.Line, r.highlight(line))
		}
	}
	buf.WriteByte('\n')
}

func (r *TextReporter) writeSummary(buf *bytes.Buffer, suggestions []advisor.Suggestion, metadata Metadata) {
	if len(suggestions) == 0 {
		fmt.Fprintf(buf, "%s\n", r.render(summaryStyle, "No optimization suggestions."))
		return
	}

	summary := fmt.Sprintf("%d suggestion(s), estimated total savings ~%s",
		len(suggestions), humanize.Bytes(uint64(TotalSavings(suggestions))))
	fmt.Fprintf(buf, "%s\n", r.render(summaryStyle, summary))

	if metadata.LowConfidenceLayers > 0 {
		note := fmt.Sprintf("%d of %d layer estimates are low confidence; run with registry lookups enabled for sharper numbers",
			metadata.LowConfidenceLayers, metadata.LayersEstimated)
		fmt.Fprintf(buf, "%s\n", r.render(lowConfidenceStyle, note))
	}
}

// render applies a style only when color output is enabled.
func (r *TextReporter) render(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// highlight applies Dockerfile syntax highlighting to a single source line.
func (r *TextReporter) highlight(line string) string {
	if !r.color {
		return line
	}

	lexer := lexers.Get("docker")
	if lexer == nil {
		return line
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	styleName := r.opts.ChromaStyle
	if styleName == "" {
		styleName = "monokai"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	var formatter chroma.Formatter = formatters.TTY256
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return line
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sourceLine extracts the 1-based line from raw file content.
func sourceLine(source []byte, line int) (string, bool) {
	if len(source) == 0 || line < 1 {
		return "", false
	}
	lines := strings.Split(string(source), "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}
