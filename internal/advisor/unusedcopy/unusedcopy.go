// Package unusedcopy flags final-stage COPY instructions whose sources are
// never referenced by any later instruction or by the CMD. Content copied
// into the shipped image that nothing uses is pure size overhead.
package unusedcopy

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/semantic"
)

// Rule implements the drop-unused-copy suggestion.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() advisor.RuleMetadata {
	return advisor.RuleMetadata{
		Category:    advisor.CategoryDropUnusedCopy,
		Name:        "Drop unused COPY from the final stage",
		Description: "Flags final-stage COPY instructions whose sources no later instruction references.",
	}
}

// Evaluate checks each COPY in the final stage against the command text of
// everything that follows it. When the stage carries no command text at all
// (a base image's default CMD does the serving) there is nothing to check
// against and the rule stays silent rather than guess.
func (r *Rule) Evaluate(_ context.Context, input advisor.Input) []advisor.Suggestion {
	final := input.Model.FinalStage()
	if final == nil {
		return nil
	}

	var suggestions []advisor.Suggestion
	for i := range final.Instructions {
		inst := &final.Instructions[i]
		if inst.Kind != semantic.KindCopy || inst.Layer == nil {
			continue
		}
		corpus := commandText(final.Instructions[i+1:])
		if corpus == "" {
			continue
		}
		if referencesAny(corpus, inst) {
			continue
		}
		if feedsDependencyInstall(inst, final.Instructions[i+1:]) {
			continue
		}
		suggestions = append(suggestions, advisor.Suggestion{
			File:         input.Model.File(),
			Category:     advisor.CategoryDropUnusedCopy,
			StageIndex:   final.Index,
			StageName:    final.Name,
			SavingsBytes: inst.Layer.Size(),
			Rationale: fmt.Sprintf(
				"COPY %s is never referenced by any later instruction or the CMD; "+
					"dropping it would save about %s",
				strings.Join(inst.SourcePaths, " "),
				humanize.Bytes(uint64(inst.Layer.Size())),
			),
			LowConfidence: inst.Layer.LowConfidence,
			Line:          inst.Location.Start.Line,
		})
	}
	return suggestions
}

// commandText concatenates the command lines of the given instructions.
func commandText(instructions []semantic.Instruction) string {
	var sb strings.Builder
	for i := range instructions {
		if cmdline := instructions[i].Cmdline; cmdline != "" {
			sb.WriteString(strings.ToLower(cmdline))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// referencesAny reports whether the corpus mentions any of the copy's
// source paths, their basenames, or its destination. Whole-context copies
// ("." or "/") are too broad to judge and always count as referenced.
func referencesAny(corpus string, inst *semantic.Instruction) bool {
	for _, src := range inst.SourcePaths {
		cleaned := path.Clean(strings.ToLower(src))
		if cleaned == "." || cleaned == "/" || cleaned == ".." {
			return true
		}
		if strings.Contains(corpus, cleaned) {
			return true
		}
		if base := path.Base(cleaned); base != "" && strings.Contains(corpus, base) {
			return true
		}
	}
	if dest := path.Clean(strings.ToLower(inst.DestPath)); dest != "." && dest != "/" {
		if strings.Contains(corpus, dest) {
			return true
		}
	}
	return false
}

// manifestFiles are dependency manifests package managers read implicitly,
// without naming them on the command line.
var manifestFiles = map[string]bool{
	"package.json":      true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"requirements.txt":  true,
	"pipfile":           true,
	"pipfile.lock":      true,
	"pyproject.toml":    true,
	"poetry.lock":       true,
	"go.mod":            true,
	"go.sum":            true,
	"gemfile":           true,
	"gemfile.lock":      true,
	"composer.json":     true,
	"composer.lock":     true,
}

// feedsDependencyInstall reports whether the copy brings in a dependency
// manifest that a later package-install step consumes implicitly.
func feedsDependencyInstall(inst *semantic.Instruction, later []semantic.Instruction) bool {
	copiesManifest := false
	for _, src := range inst.SourcePaths {
		if manifestFiles[strings.ToLower(path.Base(src))] {
			copiesManifest = true
			break
		}
	}
	if !copiesManifest {
		return false
	}
	for i := range later {
		layer := later[i].Layer
		if layer != nil && layer.Provenance == semantic.ProvenanceDependencyInstall {
			return true
		}
	}
	return false
}

func init() {
	advisor.Register(&Rule{})
}
