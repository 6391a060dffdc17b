package advisor

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Advisor runs a registry of rules over an annotated model and returns the
// combined, deterministically ordered suggestion list.
type Advisor struct {
	registry *Registry
	ignored  map[Category]bool
	log      logrus.FieldLogger
}

// New creates an advisor over the given registry. Suggestions in ignored
// categories are dropped from the output.
func New(registry *Registry, ignore ...Category) *Advisor {
	ignored := make(map[Category]bool, len(ignore))
	for _, category := range ignore {
		ignored[category] = true
	}
	return &Advisor{
		registry: registry,
		ignored:  ignored,
		log:      logrus.StandardLogger(),
	}
}

// Advise evaluates every registered rule and returns the suggestions sorted
// by descending savings, category priority, then stage order.
func (a *Advisor) Advise(ctx context.Context, input Input) []Suggestion {
	suggestions := make([]Suggestion, 0, 4)
	for _, rule := range a.registry.All() {
		category := rule.Metadata().Category
		if a.ignored[category] {
			continue
		}
		found := rule.Evaluate(ctx, input)
		a.log.WithFields(logrus.Fields{
			"rule":        category,
			"suggestions": len(found),
		}).Debug("advisor rule evaluated")
		suggestions = append(suggestions, found...)
	}
	Sort(suggestions)
	return suggestions
}
