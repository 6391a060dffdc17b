package advisor

import "sort"

// Category identifies an optimization rule family.
type Category string

const (
	// CategoryBaseImageSwap suggests a smaller variant of a stage's base image.
	CategoryBaseImageSwap Category = "base-image-swap"
	// CategoryIntroduceMultistage suggests splitting a single build-and-serve
	// stage into a build stage and a serve stage.
	CategoryIntroduceMultistage Category = "introduce-multistage"
	// CategoryDropUnusedCopy flags final-stage COPY instructions whose
	// sources nothing later references.
	CategoryDropUnusedCopy Category = "drop-unused-copy"
	// CategoryServerSwap suggests a dedicated static-file server image in
	// place of a general-purpose runtime.
	CategoryServerSwap Category = "server-swap"
)

// categoryPriority is the tie-break order between categories; lower wins.
var categoryPriority = map[Category]int{
	CategoryBaseImageSwap:       0,
	CategoryIntroduceMultistage: 1,
	CategoryDropUnusedCopy:      2,
	CategoryServerSwap:          3,
}

// Priority returns the category's tie-break rank; unknown categories sort last.
func (c Category) Priority() int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return len(categoryPriority)
}

// Suggestion is one optimization recommendation with an estimated impact.
type Suggestion struct {
	// File is the analyzed build description.
	File string `json:"file"`

	// Category identifies the rule family that produced the suggestion.
	Category Category `json:"category"`

	// StageIndex is the 0-based index of the target stage.
	StageIndex int `json:"stageIndex"`

	// StageName is the target stage's AS alias, empty for unnamed stages.
	StageName string `json:"stageName,omitempty"`

	// SavingsBytes is the estimated byte savings from applying the
	// suggestion.
	SavingsBytes int64 `json:"savingsBytes"`

	// Rationale is the human-readable explanation.
	Rationale string `json:"rationale"`

	// LowConfidence marks suggestions whose savings rest on fallback
	// estimates rather than real size data.
	LowConfidence bool `json:"lowConfidence,omitempty"`

	// Line is the 1-based line of the target instruction or stage.
	Line int `json:"line,omitempty"`
}

// Sort orders suggestions by descending savings, then category priority,
// then stage declaration order. The order is total, so output is
// deterministic for a given annotated model.
func Sort(suggestions []Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.SavingsBytes != b.SavingsBytes {
			return a.SavingsBytes > b.SavingsBytes
		}
		if a.Category != b.Category {
			return a.Category.Priority() < b.Category.Priority()
		}
		if a.StageIndex != b.StageIndex {
			return a.StageIndex < b.StageIndex
		}
		return a.Line < b.Line
	})
}
