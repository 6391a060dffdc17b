// Package advisor turns a size-annotated build model into ranked
// optimization suggestions.
//
// Rules live in subpackages and register themselves with the default
// registry through init(); import the advisor/all package with a blank
// identifier to enable every built-in rule. Rules are independent and
// additive: each inspects the model on its own and interaction effects
// between suggestions are not modeled.
package advisor

import (
	"context"

	"github.com/wharflab/stagewise/internal/semantic"
	"github.com/wharflab/stagewise/internal/sizing"
)

// Input is everything a rule may consult.
//
// Input is read-only. Rules must not mutate the model; a rule that needs
// derived data copies it first.
type Input struct {
	// Model is the size-annotated build model (guaranteed non-nil, with
	// every layer estimated, when Evaluate is called).
	Model *semantic.Model

	// Lookup resolves sizes of alternative images a rule wants to compare
	// against. May be nil; rules must degrade to defaults, not fail.
	Lookup sizing.Lookup
}

// RuleMetadata is static information about a rule.
type RuleMetadata struct {
	// Category is the unique suggestion category the rule produces.
	Category Category

	// Name is the human-readable rule name.
	Name string

	// Description explains what the rule looks for.
	Description string
}

// Rule is one optimization rule. A rule whose preconditions are not met
// returns no suggestions; that is an empty result, not an error.
type Rule interface {
	// Metadata returns the rule's static metadata.
	Metadata() RuleMetadata

	// Evaluate inspects the model and returns zero or more suggestions.
	Evaluate(ctx context.Context, input Input) []Suggestion
}
