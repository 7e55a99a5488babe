package checks

import (
	"fmt"
	"sort"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/pkg/exec"
	"github.com/evalhub/gradehub-api/pkg/review"
)

// Built-in check kinds. A check spec names one of these plus a JSON parameter
// document; the registry compiles the pair into a runnable.
const (
	KindEquals     = "equals"
	KindNumeric    = "numeric"
	KindRegex      = "regex"
	KindKeywords   = "keywords"
	KindJSONSchema = "jsonschema"
	KindFunction   = "function"
	KindCommand    = "command"
	KindAIReview   = "ai_review"
)

// Factory compiles a parameter document into a runnable check.
type Factory func(params map[string]any) (grader.RunnerFunc, error)

// Registry resolves persisted check specs into runnables. It is the pluggable
// execution-strategy seam: new kinds register a Factory, and stores stay
// ignorant of how a check actually runs.
type Registry struct {
	factories map[string]Factory
}

// RegistryOption customises registry construction.
type RegistryOption func(*Registry)

// WithExecutor enables the container-backed "command" kind.
func WithExecutor(executor exec.Executor) RegistryOption {
	return func(r *Registry) {
		r.factories[KindCommand] = commandFactory(executor)
	}
}

// WithReviewer enables the "ai_review" kind.
func WithReviewer(reviewer review.Reviewer) RegistryOption {
	return func(r *Registry) {
		r.factories[KindAIReview] = reviewFactory(reviewer)
	}
}

// NewRegistry installs the built-in kinds. Kinds that need external backends
// (command, ai_review) stay absent until their option supplies one.
func NewRegistry(opts ...RegistryOption) *Registry {
	registry := &Registry{
		factories: map[string]Factory{
			KindEquals:     equalsFactory,
			KindNumeric:    numericFactory,
			KindRegex:      regexFactory,
			KindKeywords:   keywordsFactory,
			KindJSONSchema: schemaFactory,
			KindFunction:   functionFactory,
		},
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// Register adds or replaces a kind.
func (r *Registry) Register(kind string, factory Factory) {
	r.factories[kind] = factory
}

// Kinds lists the registered kinds, sorted for stable presentation.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Compile resolves a kind + parameter document into a runnable.
func (r *Registry) Compile(kind string, params map[string]any) (grader.RunnerFunc, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown check kind %q", kind)
	}
	return factory(params)
}
