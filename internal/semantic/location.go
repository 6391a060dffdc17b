package semantic

import "github.com/moby/buildkit/frontend/dockerfile/parser"

// Position is a single point in a build description.
// Lines are 1-based (matching BuildKit), columns 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is a range in a build description. Start is inclusive, End is
// exclusive (LSP semantics). File-level locations use -1 as line sentinel
// since lines are 1-based.
type Location struct {
	File  string   `json:"file"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewFileLocation creates a location for file-level issues (no specific line).
func NewFileLocation(file string) Location {
	return Location{
		File:  file,
		Start: Position{Line: -1, Column: -1},
		End:   Position{Line: -1, Column: -1},
	}
}

// NewLocationFromRange converts a BuildKit parser.Range to a Location.
func NewLocationFromRange(file string, r parser.Range) Location {
	return Location{
		File:  file,
		Start: Position{Line: r.Start.Line, Column: r.Start.Character},
		End:   Position{Line: r.End.Line, Column: r.End.Character},
	}
}

// NewLocationFromRanges creates a Location from a slice of BuildKit ranges.
// Uses the first range if several exist, or a file-level location if empty.
func NewLocationFromRanges(file string, ranges []parser.Range) Location {
	if len(ranges) == 0 {
		return NewFileLocation(file)
	}
	return NewLocationFromRange(file, ranges[0])
}

// IsFileLevel returns true if this is a file-level location.
func (l Location) IsFileLevel() bool {
	return l.Start.Line < 0
}
