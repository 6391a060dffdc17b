// Package multistage suggests splitting a single-stage build into a build
// stage and a serve stage. It fires when one stage both installs
// dependencies and launches a long-running process, which means build-time
// tooling ships inside the final image.
package multistage

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/semantic"
)

// Rule implements the introduce-multistage suggestion.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() advisor.RuleMetadata {
	return advisor.RuleMetadata{
		Category:    advisor.CategoryIntroduceMultistage,
		Name:        "Split build and serve into separate stages",
		Description: "Suggests a multi-stage build when a single stage both installs dependencies and serves.",
	}
}

// Evaluate fires only for single-stage builds that both build and serve.
func (r *Rule) Evaluate(_ context.Context, input advisor.Input) []advisor.Suggestion {
	if input.Model.StageCount() != 1 {
		return nil
	}
	stage := input.Model.Stage(0)
	if !stage.HasDependencyInstall() {
		return nil
	}
	cmd := stage.Cmd()
	if cmd == nil || !advisor.LooksLongRunning(cmd.Cmdline) {
		return nil
	}

	savings, lowConfidence := buildOnlyBytes(stage)
	if savings <= 0 {
		return nil
	}

	return []advisor.Suggestion{{
		File:         input.Model.File(),
		Category:     advisor.CategoryIntroduceMultistage,
		StageIndex:   stage.Index,
		StageName:    stage.Name,
		SavingsBytes: savings,
		Rationale: fmt.Sprintf(
			"the single stage installs dependencies and serves from the same image; "+
				"splitting into a build stage and a serve stage that copies only the "+
				"built artifacts would drop about %s of build-time content",
			humanize.Bytes(uint64(savings)),
		),
		LowConfidence: lowConfidence,
		Line:          stage.Location.Start.Line,
	}}
}

// buildOnlyBytes sums the layers a dedicated serve stage would leave
// behind: source copies and dependency installs.
func buildOnlyBytes(stage *semantic.StageInfo) (int64, bool) {
	var total int64
	var lowConfidence bool
	for _, layer := range stage.Layers() {
		switch layer.Provenance {
		case semantic.ProvenanceSourceCopy, semantic.ProvenanceDependencyInstall:
			total += layer.Size()
			lowConfidence = lowConfidence || layer.LowConfidence
		}
	}
	return total, lowConfidence
}

func init() {
	advisor.Register(&Rule{})
}
