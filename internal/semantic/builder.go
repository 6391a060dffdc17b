package semantic

import (
	"strconv"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/instructions"

	"github.com/wharflab/stagewise/internal/dockerfile"
)

// Builder constructs a semantic model from a parse result. It performs a
// single pass over the stages in declaration order, so every reference is
// resolved against stages that already exist; this is what makes the
// resulting graph a DAG without an explicit cycle check.
type Builder struct {
	parseResult  *dockerfile.ParseResult
	file         string
	stagesByName map[string]int
}

// NewBuilder creates a new semantic model builder.
func NewBuilder(pr *dockerfile.ParseResult, file string) *Builder {
	return &Builder{
		parseResult:  pr,
		file:         file,
		stagesByName: make(map[string]int),
	}
}

// Build constructs the semantic model, or fails with a *StructuralError
// when the build description violates stage reference rules.
func (b *Builder) Build() (*Model, error) {
	if b.parseResult == nil {
		return &Model{graph: newStageGraph(0), stagesByName: b.stagesByName}, nil
	}

	stages := b.parseResult.Stages
	graph := newStageGraph(len(stages))
	infos := make([]*StageInfo, len(stages))

	for i := range stages {
		stage := &stages[i]

		if err := b.registerStageName(stage, i); err != nil {
			return nil, err
		}

		info := &StageInfo{
			Index:          i,
			Name:           stage.Name,
			BaseImage:      stage.BaseName,
			BaseStageIndex: -1,
			Platform:       stage.Platform,
			IsFinal:        i == len(stages)-1,
			Location:       NewLocationFromRanges(b.file, stage.Location),
		}

		b.resolveBase(stage, info, graph)
		info.Instructions = append(info.Instructions, b.baseInstruction(stage, info))

		for _, cmd := range stage.Commands {
			ins, err := b.buildInstruction(cmd, info, graph)
			if err != nil {
				return nil, err
			}
			info.Instructions = append(info.Instructions, ins)
		}

		infos[i] = info
	}

	return &Model{
		file:         b.file,
		stages:       infos,
		graph:        graph,
		stagesByName: b.stagesByName,
	}, nil
}

// registerStageName records the stage alias, failing on duplicates.
// Stage names are case-insensitive per Docker semantics.
func (b *Builder) registerStageName(stage *instructions.Stage, index int) error {
	if stage.Name == "" {
		return nil
	}
	normalized := normalizeStageRef(stage.Name)
	if _, exists := b.stagesByName[normalized]; exists {
		return newStructuralError(
			ErrDuplicateStageName,
			stage.Name,
			NewLocationFromRanges(b.file, stage.Location),
		)
	}
	b.stagesByName[normalized] = index
	return nil
}

// resolveBase resolves FROM <stage> references. An unknown name is an
// external image, never an error: FROM ubuntu is indistinguishable from a
// typo'd stage name at this level.
func (b *Builder) resolveBase(stage *instructions.Stage, info *StageInfo, graph *StageGraph) {
	if idx, found := b.stagesByName[normalizeStageRef(stage.BaseName)]; found {
		info.BaseStageIndex = idx
		graph.addDependency(idx, info.Index)
	}
}

// baseInstruction synthesizes the BASE instruction for the FROM line.
// Only external bases get a layer: a stage-ref base's bytes belong to the
// referenced stage, and scratch is empty.
func (b *Builder) baseInstruction(stage *instructions.Stage, info *StageInfo) Instruction {
	ins := Instruction{
		Kind:           KindBase,
		Name:           "FROM",
		From:           stage.BaseName,
		FromStageIndex: info.BaseStageIndex,
		Location:       info.Location,
	}
	if info.IsExternalBase() {
		ins.Layer = &Layer{StageIndex: info.Index, Provenance: ProvenanceBaseImage}
	}
	return ins
}

func (b *Builder) buildInstruction(cmd instructions.Command, info *StageInfo, graph *StageGraph) (Instruction, error) {
	loc := NewLocationFromRanges(b.file, cmd.Location())

	switch c := cmd.(type) {
	case *instructions.CopyCommand:
		return b.buildCopy(c.SourcePaths, c.DestPath, c.From, "COPY", info, graph, loc)

	case *instructions.AddCommand:
		return b.buildCopy(c.SourcePaths, c.DestPath, "", "ADD", info, graph, loc)

	case *instructions.RunCommand:
		cmdline := flattenCmdLine(c.CmdLine, c.Files)
		ins := Instruction{
			Kind:     KindRun,
			Name:     "RUN",
			Cmdline:  cmdline,
			Location: loc,
		}
		layer := &Layer{StageIndex: info.Index, Provenance: ProvenanceRunStep}
		if manager := detectPackageInstall(cmdline); manager != "" {
			layer.Provenance = ProvenanceDependencyInstall
			ins.PackageManager = manager
		}
		ins.Layer = layer
		return ins, nil

	case *instructions.CmdCommand:
		return Instruction{
			Kind:     KindCmd,
			Name:     "CMD",
			Cmdline:  strings.Join(c.CmdLine, " "),
			Location: loc,
		}, nil

	case *instructions.EntrypointCommand:
		return Instruction{
			Kind:     KindOther,
			Name:     "ENTRYPOINT",
			Cmdline:  strings.Join(c.CmdLine, " "),
			Location: loc,
		}, nil

	case *instructions.ExposeCommand:
		return Instruction{
			Kind:     KindExpose,
			Name:     "EXPOSE",
			Cmdline:  strings.Join(c.Ports, " "),
			Location: loc,
		}, nil

	default:
		return Instruction{
			Kind:     KindOther,
			Name:     strings.ToUpper(cmd.Name()),
			Location: loc,
		}, nil
	}
}

// buildCopy builds a COPY/ADD instruction, resolving any --from reference.
func (b *Builder) buildCopy(sources []string, dest, from, name string, info *StageInfo, graph *StageGraph, loc Location) (Instruction, error) {
	ins := Instruction{
		Kind:           KindCopy,
		Name:           name,
		SourcePaths:    append([]string(nil), sources...),
		DestPath:       dest,
		From:           from,
		FromStageIndex: -1,
		Location:       loc,
	}

	provenance := ProvenanceSourceCopy
	if from != "" {
		provenance = ProvenanceArtifactCopy
		idx, external, err := b.resolveCopyFrom(from, info.Index, loc)
		if err != nil {
			return Instruction{}, err
		}
		if external {
			graph.addExternalRef(info.Index, from)
		} else {
			ins.FromStageIndex = idx
			graph.addDependency(idx, info.Index)
		}
	}

	ins.Layer = &Layer{StageIndex: info.Index, Provenance: provenance}
	return ins, nil
}

// resolveCopyFrom resolves a COPY --from reference against previously
// declared stages. References must point strictly backward: forward, self,
// and unknown bare-name references fail with ErrUnknownStageReference.
// References that look like image refs (tag, registry path, or digest)
// are recorded as external.
func (b *Builder) resolveCopyFrom(from string, stageIndex int, loc Location) (idx int, external bool, err error) {
	if n, convErr := strconv.Atoi(from); convErr == nil {
		if n < 0 || n >= stageIndex {
			return 0, false, newStructuralError(ErrUnknownStageReference, from, loc)
		}
		return n, false, nil
	}

	if idx, found := b.stagesByName[normalizeStageRef(from)]; found {
		if idx >= stageIndex {
			return 0, false, newStructuralError(ErrUnknownStageReference, from, loc)
		}
		return idx, false, nil
	}

	if looksLikeImageRef(from) {
		return 0, true, nil
	}

	return 0, false, newStructuralError(ErrUnknownStageReference, from, loc)
}

// looksLikeImageRef distinguishes external image references from bare stage
// names. Stage names cannot contain ':', '/', or '@'.
func looksLikeImageRef(ref string) bool {
	return strings.ContainsAny(ref, ":/@")
}

// flattenCmdLine joins the command words and any heredoc bodies into one
// searchable command text.
func flattenCmdLine(cmdLine []string, files []instructions.ShellInlineFile) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(cmdLine, " "))
	for _, f := range files {
		sb.WriteByte('\n')
		sb.WriteString(f.Data)
	}
	return sb.String()
}

// normalizeStageRef normalizes a stage reference for comparison.
func normalizeStageRef(name string) string {
	return strings.ToLower(name)
}
