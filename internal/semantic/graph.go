package semantic

// StageGraph is the dependency graph between stages. Edges point from a
// stage to the earlier stages it copies from or builds upon. Because the
// builder only ever resolves references against previously declared stages,
// every edge points strictly backward in declaration order and the graph is
// acyclic by construction; no runtime cycle check is needed.
type StageGraph struct {
	// deps[i] lists the stages stage i depends on.
	deps [][]int

	// dependents[i] lists the stages that depend on stage i.
	dependents [][]int

	// externalRefs[i] lists external image refs used by COPY --from in stage i.
	externalRefs [][]string
}

func newStageGraph(stageCount int) *StageGraph {
	return &StageGraph{
		deps:         make([][]int, stageCount),
		dependents:   make([][]int, stageCount),
		externalRefs: make([][]string, stageCount),
	}
}

// addDependency records that stage depends on depStage.
// Callers guarantee depStage < stage.
func (g *StageGraph) addDependency(depStage, stage int) {
	g.deps[stage] = append(g.deps[stage], depStage)
	g.dependents[depStage] = append(g.dependents[depStage], stage)
}

func (g *StageGraph) addExternalRef(stage int, ref string) {
	g.externalRefs[stage] = append(g.externalRefs[stage], ref)
}

// StageCount returns the number of stages in the graph.
func (g *StageGraph) StageCount() int { return len(g.deps) }

// FinalStageIndex returns the index of the final stage (the last declared),
// or -1 for an empty graph.
func (g *StageGraph) FinalStageIndex() int { return len(g.deps) - 1 }

// DirectDependencies returns the stages the given stage directly depends on
// via COPY --from or FROM <stage>.
func (g *StageGraph) DirectDependencies(stage int) []int {
	if stage < 0 || stage >= len(g.deps) {
		return nil
	}
	return g.deps[stage]
}

// DirectDependents returns the stages that directly depend on the given stage.
func (g *StageGraph) DirectDependents(stage int) []int {
	if stage < 0 || stage >= len(g.dependents) {
		return nil
	}
	return g.dependents[stage]
}

// ExternalRefs returns external image references copied from in the stage.
func (g *StageGraph) ExternalRefs(stage int) []string {
	if stage < 0 || stage >= len(g.externalRefs) {
		return nil
	}
	return g.externalRefs[stage]
}

// DependsOn reports whether a depends on b, directly or transitively.
func (g *StageGraph) DependsOn(a, b int) bool {
	if a < 0 || a >= len(g.deps) {
		return false
	}
	seen := make([]bool, len(g.deps))
	stack := []int{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, dep := range g.deps[cur] {
			if dep == b {
				return true
			}
			if !seen[dep] {
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// UnreachableStages returns indices of stages the final stage neither is
// nor depends on. These stages do not contribute to the shipped image.
func (g *StageGraph) UnreachableStages() []int {
	final := g.FinalStageIndex()
	if final < 0 {
		return nil
	}
	var unreachable []int
	for i := range g.deps {
		if i != final && !g.DependsOn(final, i) {
			unreachable = append(unreachable, i)
		}
	}
	return unreachable
}
