package advisor

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages rule registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	rules map[Category]Rule
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[Category]Rule)}
}

// Register adds a rule to the registry.
// Panics if a rule with the same category is already registered.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	category := rule.Metadata().Category
	if _, exists := r.rules[category]; exists {
		panic(fmt.Sprintf("advisor rule %q already registered", category))
	}
	r.rules[category] = rule
}

// Get retrieves a rule by category. Returns nil if none is registered.
func (r *Registry) Get(category Category) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[category]
}

// All returns all registered rules in category priority order.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Metadata().Category, result[j].Metadata().Category
		if a.Priority() != b.Priority() {
			return a.Priority() < b.Priority()
		}
		return a < b
	})
	return result
}

// Categories returns the registered categories in priority order.
func (r *Registry) Categories() []Category {
	rules := r.All()
	categories := make([]Category, len(rules))
	for i, rule := range rules {
		categories[i] = rule.Metadata().Category
	}
	return categories
}

// defaultRegistry is the global default registry.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a rule to the default registry.
func Register(rule Rule) {
	defaultRegistry.Register(rule)
}
