// Package analyzer runs the full analysis pipeline for one build
// description: parse, build the semantic model, estimate layer sizes, and
// evaluate the optimization rules.
package analyzer

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/config"
	"github.com/wharflab/stagewise/internal/dockerfile"
	"github.com/wharflab/stagewise/internal/semantic"
	"github.com/wharflab/stagewise/internal/sizing"
)

// Input describes one analysis request.
type Input struct {
	// FilePath is the build description path, used for reading when
	// Content is nil and for locations in the output. "-" means stdin.
	FilePath string

	// Content, when non-nil, is analyzed instead of reading FilePath.
	Content []byte

	// Config is the effective configuration. Nil means defaults.
	Config *config.Config

	// Lookup resolves image sizes. Nil means defaults only.
	Lookup sizing.Lookup

	// Registry is the rule registry. Nil means the default registry.
	Registry *advisor.Registry
}

// Stats counts what one analysis did, for report metadata.
type Stats struct {
	// Stages is the number of stages in the build description.
	Stages int

	// LayersEstimated is the number of layers that were sized.
	LayersEstimated int

	// LowConfidenceLayers is how many carry fallback estimates.
	LowConfidenceLayers int
}

// Result is the outcome of one successful analysis.
type Result struct {
	// Model is the size-annotated semantic model.
	Model *semantic.Model

	// Suggestions is the ordered suggestion list, possibly empty.
	Suggestions []advisor.Suggestion

	// Source is the raw content that was analyzed, for snippet rendering.
	Source []byte

	// Stats summarizes the run.
	Stats Stats
}

// Analyze runs the pipeline for one build description. Structural defects
// (malformed syntax, bad stage references, duplicate names) abort with a
// *semantic.StructuralError; failed size lookups never abort, they degrade
// to low-confidence defaults.
func Analyze(ctx context.Context, input Input) (*Result, error) {
	cfg := input.Config
	if cfg == nil {
		cfg = config.Default()
	}
	registry := input.Registry
	if registry == nil {
		registry = advisor.DefaultRegistry()
	}
	log := logrus.WithField("file", input.FilePath)

	content := input.Content
	if content == nil {
		var err error
		content, err = dockerfile.ReadInput(input.FilePath)
		if err != nil {
			return nil, err
		}
	}

	pr, err := dockerfile.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, semantic.WrapMalformed(input.FilePath, err)
	}

	model, err := semantic.NewModel(pr, input.FilePath)
	if err != nil {
		return nil, err
	}
	log.WithField("stages", model.StageCount()).Debug("semantic model built")

	defaults := sizing.DefaultDefaults()
	defaults.ManifestHintBytes = cfg.Sizing.ManifestHintBytes
	summary := sizing.NewEstimator(input.Lookup, defaults).Estimate(ctx, model)
	log.WithFields(logrus.Fields{
		"layers":        summary.LayersEstimated,
		"lowConfidence": summary.LowConfidence,
	}).Debug("layer sizes estimated")

	ignore := make([]advisor.Category, 0, len(cfg.Advisor.Ignore))
	for _, category := range cfg.Advisor.Ignore {
		ignore = append(ignore, advisor.Category(category))
	}
	suggestions := advisor.New(registry, ignore...).Advise(ctx, advisor.Input{
		Model:  model,
		Lookup: input.Lookup,
	})

	return &Result{
		Model:       model,
		Suggestions: suggestions,
		Source:      pr.Source,
		Stats: Stats{
			Stages:              model.StageCount(),
			LayersEstimated:     summary.LayersEstimated,
			LowConfidenceLayers: summary.LowConfidence,
		},
	}, nil
}
