package grader

import "sort"

// Submission is one learner's attempt: a named mapping of artifacts to grade.
// Artifacts are arbitrary values; when the engine is embedded as a library they
// may also be callables driven by function-table checks. The map is copied on
// construction and never mutated afterwards.
type Submission struct {
	artifacts map[string]any
}

// NewSubmission builds an immutable submission from the given artifacts.
func NewSubmission(artifacts map[string]any) Submission {
	copied := make(map[string]any, len(artifacts))
	for name, value := range artifacts {
		copied[name] = value
	}
	return Submission{artifacts: copied}
}

// Artifact returns the named artifact and whether it was submitted.
func (s Submission) Artifact(name string) (any, bool) {
	value, ok := s.artifacts[name]
	return value, ok
}

// Names lists the submitted artifact names in sorted order.
func (s Submission) Names() []string {
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many artifacts were submitted.
func (s Submission) Len() int {
	return len(s.artifacts)
}
