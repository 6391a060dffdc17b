// Package serverswap suggests a dedicated static-file server image when
// the final stage uses a general-purpose runtime to serve static content.
// A full language runtime is a heavy way to serve files a purpose-built
// image handles in a fraction of the size.
package serverswap

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/sizing"
)

// StaticServerImage is the minimal static-file server suggested as the
// replacement serve base.
const StaticServerImage = "nginx:stable-alpine"

// staticServerFallbackBytes approximates the static server's size when the
// lookup cannot resolve it, so the rule still fires offline.
const staticServerFallbackBytes = 11 * 1024 * 1024

// Rule implements the server-swap suggestion.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() advisor.RuleMetadata {
	return advisor.RuleMetadata{
		Category:    advisor.CategoryServerSwap,
		Name:        "Serve static files from a dedicated server image",
		Description: "Suggests a minimal static-file server when the final CMD serves static files through a general-purpose runtime.",
	}
}

// Evaluate fires when the final stage's CMD serves static files through a
// general-purpose runtime and the runtime's base is larger than the
// dedicated server image.
func (r *Rule) Evaluate(ctx context.Context, input advisor.Input) []advisor.Suggestion {
	final := input.Model.FinalStage()
	if final == nil || !final.IsExternalBase() {
		return nil
	}
	cmd := final.Cmd()
	if cmd == nil || !advisor.ServesStaticFiles(cmd.Cmdline) {
		return nil
	}

	baseLayer := final.Instructions[0].Layer
	if baseLayer == nil || !baseLayer.Estimated() {
		return nil
	}
	runtime := baseLayer.Size()

	target := sizing.ImageSizeOrDefault(ctx, input.Lookup, StaticServerImage, staticServerFallbackBytes)
	savings := runtime - target.Bytes
	if savings <= 0 {
		return nil
	}

	return []advisor.Suggestion{{
		File:         input.Model.File(),
		Category:     advisor.CategoryServerSwap,
		StageIndex:   final.Index,
		StageName:    final.Name,
		SavingsBytes: savings,
		Rationale: fmt.Sprintf(
			"the final stage serves static files through %q (~%s); a dedicated "+
				"server image like %q (~%s) would save about %s",
			final.BaseImage, humanize.Bytes(uint64(runtime)),
			StaticServerImage, humanize.Bytes(uint64(target.Bytes)), humanize.Bytes(uint64(savings)),
		),
		LowConfidence: baseLayer.LowConfidence || target.Confidence == sizing.ConfidenceLow,
		Line:          cmd.Location.Start.Line,
	}}
}

func init() {
	advisor.Register(&Rule{})
}
