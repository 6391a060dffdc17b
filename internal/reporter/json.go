package reporter

import (
	"encoding/json"
	"io"

	"github.com/wharflab/stagewise/internal/advisor"
)

// jsonReport is the top-level JSON output document.
type jsonReport struct {
	Suggestions []advisor.Suggestion `json:"suggestions"`
	Summary     jsonSummary          `json:"summary"`
}

type jsonSummary struct {
	FilesAnalyzed       int   `json:"filesAnalyzed"`
	StagesAnalyzed      int   `json:"stagesAnalyzed"`
	LayersEstimated     int   `json:"layersEstimated"`
	LowConfidenceLayers int   `json:"lowConfidenceLayers"`
	TotalSavingsBytes   int64 `json:"totalSavingsBytes"`
}

// JSONReporter emits the suggestion list as a single JSON document.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a JSON reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

// Report implements Reporter.
func (r *JSONReporter) Report(suggestions []advisor.Suggestion, _ map[string][]byte, metadata Metadata) error {
	if suggestions == nil {
		suggestions = []advisor.Suggestion{}
	}
	report := jsonReport{
		Suggestions: suggestions,
		Summary: jsonSummary{
			FilesAnalyzed:       metadata.FilesAnalyzed,
			StagesAnalyzed:      metadata.StagesAnalyzed,
			LayersEstimated:     metadata.LayersEstimated,
			LowConfidenceLayers: metadata.LowConfidenceLayers,
			TotalSavingsBytes:   TotalSavings(suggestions),
		},
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
