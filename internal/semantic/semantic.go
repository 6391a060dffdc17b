// Package semantic models a multi-stage container build as an immutable
// stage graph with typed instructions and sizing layers.
//
// The model is built in a single pass over the parsed build description.
// Stage references (COPY --from, FROM <stage>) may only point to stages
// declared earlier, which makes the graph acyclic by construction.
// Violations of the reference rules are structural errors that abort the
// analysis; there is no partial model.
//
// After construction the model is read-only, with one exception: the
// sizing estimator populates each Layer's byte estimate exactly once.
// A fully annotated model is safe for concurrent reads.
package semantic

import (
	"github.com/wharflab/stagewise/internal/dockerfile"
)

// Model is the semantic snapshot of one build description.
type Model struct {
	file         string
	stages       []*StageInfo
	graph        *StageGraph
	stagesByName map[string]int
}

// NewModel builds a semantic model from a parse result.
// This is a convenience wrapper around NewBuilder().Build().
func NewModel(pr *dockerfile.ParseResult, file string) (*Model, error) {
	return NewBuilder(pr, file).Build()
}

// File returns the path of the analyzed build description.
func (m *Model) File() string { return m.file }

// StageCount returns the number of stages.
func (m *Model) StageCount() int { return len(m.stages) }

// Stage returns the stage at the given index, or nil if out of bounds.
func (m *Model) Stage(index int) *StageInfo {
	if index < 0 || index >= len(m.stages) {
		return nil
	}
	return m.stages[index]
}

// Stages returns all stages in declaration order.
func (m *Model) Stages() []*StageInfo { return m.stages }

// FinalStage returns the final stage, or nil for an empty model.
func (m *Model) FinalStage() *StageInfo {
	return m.Stage(len(m.stages) - 1)
}

// StageIndexByName returns the index of the named stage.
// Names are case-insensitive per Docker semantics.
func (m *Model) StageIndexByName(name string) (int, bool) {
	idx, found := m.stagesByName[normalizeStageRef(name)]
	return idx, found
}

// Graph returns the stage dependency graph.
func (m *Model) Graph() *StageGraph { return m.graph }

// Layers returns every layer in the model, in stage and instruction order.
func (m *Model) Layers() []*Layer {
	var layers []*Layer
	for _, stage := range m.stages {
		layers = append(layers, stage.Layers()...)
	}
	return layers
}
