package grader

import (
	"context"
	"time"
)

// DefaultTimeout bounds check execution when a check does not declare its own limit.
const DefaultTimeout = 30 * time.Second

// Status classifies the outcome of a single check.
const (
	StatusPass    = "PASS"
	StatusPartial = "PARTIAL"
	StatusFail    = "FAIL"
	StatusError   = "ERROR"
	StatusTimeout = "TIMEOUT"
)

// RunnerFunc executes one check against a submission and returns its raw result.
// The raw result is normalized later; runners may return a bool, a fraction in
// [0,1], a Scored value, a map with "score"/"feedback" keys, or anything else
// (which counts as a failure).
type RunnerFunc func(ctx context.Context, submission Submission) (any, error)

// Check is a single scored test owned by a homework.
type Check struct {
	Name        string
	Points      float64
	Description string
	Timeout     time.Duration
	Run         RunnerFunc
}

// EffectiveTimeout returns the check's timeout, falling back to DefaultTimeout.
func (c Check) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Scored is the structured raw result a runner can return to report
// proportional credit together with human-readable feedback.
type Scored struct {
	Score    float64
	Feedback string
}

// CheckResult is the normalized outcome of one check.
type CheckResult struct {
	CheckName      string
	Description    string
	PointsPossible float64
	PointsEarned   float64
	Status         string
	Feedback       string
	ExecutionTime  time.Duration
}

// SubmissionRecord captures one graded attempt. It is immutable once built
// and persisted append-only.
type SubmissionRecord struct {
	ID             string
	HomeworkName   string
	LearnerID      string
	SubmissionTime time.Time
	TotalScore     float64
	MaxScore       float64
	Percentage     float64
	Results        []CheckResult
}

// Result returns the result for a named check, preserving callers that need
// map-style access while Results keeps the homework's check order.
func (r SubmissionRecord) Result(checkName string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.CheckName == checkName {
			return res, true
		}
	}
	return CheckResult{}, false
}
