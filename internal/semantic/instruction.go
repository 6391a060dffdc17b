package semantic

// InstructionKind classifies a build instruction for sizing purposes.
type InstructionKind int

const (
	// KindBase is the FROM instruction starting a stage.
	KindBase InstructionKind = iota
	// KindCopy is a COPY or ADD instruction.
	KindCopy
	// KindRun is a RUN instruction.
	KindRun
	// KindExpose is an EXPOSE instruction.
	KindExpose
	// KindCmd is a CMD instruction.
	KindCmd
	// KindOther covers everything else (ENV, LABEL, ENTRYPOINT, ...).
	KindOther
)

// String returns the instruction kind name.
func (k InstructionKind) String() string {
	switch k {
	case KindBase:
		return "BASE"
	case KindCopy:
		return "COPY"
	case KindRun:
		return "RUN"
	case KindExpose:
		return "EXPOSE"
	case KindCmd:
		return "CMD"
	default:
		return "OTHER"
	}
}

// ProducesLayer reports whether instructions of this kind plausibly produce
// a filesystem layer worth sizing. BASE, COPY, and RUN do; metadata-only
// instructions do not.
func (k InstructionKind) ProducesLayer() bool {
	switch k {
	case KindBase, KindCopy, KindRun:
		return true
	default:
		return false
	}
}

// Provenance tags what produced a layer, which drives the size heuristics
// and the advisor's savings math.
type Provenance int

const (
	// ProvenanceBaseImage is the base image filesystem itself.
	ProvenanceBaseImage Provenance = iota
	// ProvenanceDependencyInstall is a RUN step that installs packages.
	ProvenanceDependencyInstall
	// ProvenanceSourceCopy is a COPY from the build context.
	ProvenanceSourceCopy
	// ProvenanceArtifactCopy is a COPY --from an earlier stage or image.
	ProvenanceArtifactCopy
	// ProvenanceRunStep is a RUN step with no recognized package install.
	ProvenanceRunStep
)

// String returns the provenance tag name.
func (p Provenance) String() string {
	switch p {
	case ProvenanceBaseImage:
		return "base-image"
	case ProvenanceDependencyInstall:
		return "dependency-install"
	case ProvenanceSourceCopy:
		return "source-copy"
	case ProvenanceArtifactCopy:
		return "artifact-copy"
	default:
		return "run-step"
	}
}

// Layer is the sizing unit attached to a layer-producing instruction.
// The byte estimate is nil until the estimator populates it; after that
// the layer is treated as immutable by all downstream readers.
type Layer struct {
	// StageIndex is the 0-based index of the owning stage.
	StageIndex int

	// Provenance tags what produced this layer.
	Provenance Provenance

	// Bytes is the estimated size, nil until estimated.
	Bytes *int64

	// LowConfidence marks estimates produced from defaults or failed
	// lookups rather than real data.
	LowConfidence bool
}

// SetEstimate populates the layer's size exactly once. Later calls are
// no-ops so an annotated model stays immutable.
func (l *Layer) SetEstimate(bytes int64, lowConfidence bool) {
	if l.Bytes != nil {
		return
	}
	l.Bytes = &bytes
	l.LowConfidence = lowConfidence
}

// Estimated reports whether the estimator has populated this layer.
func (l *Layer) Estimated() bool { return l.Bytes != nil }

// Size returns the estimated byte size, or 0 if not yet estimated.
func (l *Layer) Size() int64 {
	if l.Bytes == nil {
		return 0
	}
	return *l.Bytes
}

// Instruction is one build step inside a stage, reduced to the fields the
// sizing and advisor layers reason about.
type Instruction struct {
	// Kind classifies the instruction.
	Kind InstructionKind

	// Name is the raw instruction keyword (e.g. "FROM", "COPY", "RUN").
	Name string

	// SourcePaths are the COPY/ADD source arguments.
	SourcePaths []string

	// DestPath is the COPY/ADD destination argument.
	DestPath string

	// From is the raw COPY --from value, empty when absent.
	From string

	// FromStageIndex is the resolved stage index for COPY --from,
	// or -1 for external image references.
	FromStageIndex int

	// Cmdline is the flattened command text for RUN/CMD/ENTRYPOINT,
	// used for dependency-install and server detection.
	Cmdline string

	// PackageManager names the detected package manager for
	// dependency-install RUN steps (e.g. "yarn", "apt-get").
	PackageManager string

	// Layer is the sizing unit, nil for instructions that produce none.
	Layer *Layer

	// Location is where the instruction appears.
	Location Location
}
