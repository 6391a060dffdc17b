// Package baseimageswap suggests smaller variants of a stage's base image.
// For every stage built on an external image it queries the size lookup for
// sibling tags ("-alpine", "-slim") and recommends the smallest one that
// actually saves bytes.
package baseimageswap

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/semantic"
	"github.com/wharflab/stagewise/internal/sizing"
)

// Rule implements the base-image-swap suggestion.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() advisor.RuleMetadata {
	return advisor.RuleMetadata{
		Category:    advisor.CategoryBaseImageSwap,
		Name:        "Swap base image for a smaller variant",
		Description: "Suggests an alpine or slim sibling tag when it is smaller than the current base image.",
	}
}

// minimalTagMarkers mark tags that already are size-optimized variants;
// stages on these bases are left alone.
var minimalTagMarkers = []string{"alpine", "slim", "distroless", "scratch", "busybox"}

// Evaluate checks every externally based stage for a smaller sibling tag.
func (r *Rule) Evaluate(ctx context.Context, input advisor.Input) []advisor.Suggestion {
	var suggestions []advisor.Suggestion
	for _, stage := range input.Model.Stages() {
		if s, ok := r.evaluateStage(ctx, input, stage); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}

func (r *Rule) evaluateStage(ctx context.Context, input advisor.Input, stage *semantic.StageInfo) (advisor.Suggestion, bool) {
	if !stage.IsExternalBase() || input.Lookup == nil {
		return advisor.Suggestion{}, false
	}

	familiar, err := sizing.FamiliarRef(stage.BaseImage)
	if err != nil {
		return advisor.Suggestion{}, false
	}
	name, tag := sizing.SplitTag(familiar)
	if alreadyMinimal(familiar) {
		return advisor.Suggestion{}, false
	}

	baseLayer := stage.Instructions[0].Layer
	if baseLayer == nil || !baseLayer.Estimated() {
		return advisor.Suggestion{}, false
	}
	current := baseLayer.Size()

	bestRef, bestSize, found := smallestSibling(ctx, input.Lookup, name, tag)
	if !found || bestSize.Bytes >= current {
		return advisor.Suggestion{}, false
	}

	savings := current - bestSize.Bytes
	return advisor.Suggestion{
		File:         input.Model.File(),
		Category:     advisor.CategoryBaseImageSwap,
		StageIndex:   stage.Index,
		StageName:    stage.Name,
		SavingsBytes: savings,
		Rationale: fmt.Sprintf(
			"stage %d is built on %q (~%s); switching to %q (~%s) would shed about %s",
			stage.Index, familiar, humanize.Bytes(uint64(current)),
			bestRef, humanize.Bytes(uint64(bestSize.Bytes)), humanize.Bytes(uint64(savings)),
		),
		LowConfidence: baseLayer.LowConfidence || bestSize.Confidence == sizing.ConfidenceLow,
		Line:          stage.Location.Start.Line,
	}, true
}

// alreadyMinimal reports whether the reference already names a
// size-optimized image.
func alreadyMinimal(familiar string) bool {
	lowered := strings.ToLower(familiar)
	for _, marker := range minimalTagMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// siblingTags lists the candidate variant tags for a given tag.
// "12" yields "12-alpine" and "12-slim"; "latest" yields bare variants.
func siblingTags(tag string) []string {
	if tag == "" || tag == "latest" {
		return []string{"alpine", "slim"}
	}
	return []string{tag + "-alpine", tag + "-slim"}
}

// smallestSibling resolves every candidate sibling tag through the lookup
// and returns the smallest one that resolved.
func smallestSibling(ctx context.Context, lookup sizing.Lookup, name, tag string) (string, sizing.Size, bool) {
	var (
		bestRef  string
		bestSize sizing.Size
		found    bool
	)
	for _, candidate := range siblingTags(tag) {
		ref := name + ":" + candidate
		size, err := lookup.ImageSize(ctx, ref)
		if err != nil {
			continue
		}
		if !found || size.Bytes < bestSize.Bytes {
			bestRef, bestSize, found = ref, size, true
		}
	}
	return bestRef, bestSize, found
}

func init() {
	advisor.Register(&Rule{})
}
