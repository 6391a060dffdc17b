package semantic

// StageInfo describes one build stage: its base image, its typed
// instructions, and its resolved relationships to earlier stages.
type StageInfo struct {
	// Index is the 0-based stage index in declaration order.
	Index int

	// Name is the AS alias, empty for unnamed stages. Unnamed stages are
	// addressable by their positional index.
	Name string

	// BaseImage is the raw FROM reference (e.g. "node:12-alpine").
	BaseImage string

	// BaseStageIndex is the index of the stage the FROM references,
	// or -1 when the base is an external image.
	BaseStageIndex int

	// Platform is the FROM --platform value, if any.
	Platform string

	// Instructions are the stage's build steps in order. The first entry
	// is always the synthetic BASE instruction for the FROM line.
	Instructions []Instruction

	// IsFinal is true for the last stage in declaration order, the one
	// that produces the shipped image.
	IsFinal bool

	// Location is where the FROM instruction appears.
	Location Location
}

// Cmd returns the stage's CMD instruction, or nil if it has none.
func (s *StageInfo) Cmd() *Instruction {
	for i := range s.Instructions {
		if s.Instructions[i].Kind == KindCmd {
			return &s.Instructions[i]
		}
	}
	return nil
}

// HasDependencyInstall reports whether any RUN step in the stage installs
// packages through a recognized package manager.
func (s *StageInfo) HasDependencyInstall() bool {
	for i := range s.Instructions {
		ins := &s.Instructions[i]
		if ins.Kind == KindRun && ins.Layer != nil && ins.Layer.Provenance == ProvenanceDependencyInstall {
			return true
		}
	}
	return false
}

// IsExternalBase reports whether the stage builds on an external image
// rather than on another stage or scratch.
func (s *StageInfo) IsExternalBase() bool {
	return s.BaseStageIndex < 0 && s.BaseImage != "scratch"
}

// Layers returns all layers the stage produces, in instruction order.
func (s *StageInfo) Layers() []*Layer {
	var layers []*Layer
	for i := range s.Instructions {
		if l := s.Instructions[i].Layer; l != nil {
			layers = append(layers, l)
		}
	}
	return layers
}
