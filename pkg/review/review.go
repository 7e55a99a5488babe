package review

import "context"

// Input carries a learner artifact plus the instructor rubric to judge it by.
type Input struct {
	HomeworkName string
	CheckName    string
	Rubric       string
	Artifact     string
}

// Result is the structured verdict returned by a reviewer.
type Result struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Verdict  string  `json:"verdict"`
}

// Reviewer grades free-form artifacts against a rubric.
type Reviewer interface {
	Review(ctx context.Context, input Input) (Result, error)
}
