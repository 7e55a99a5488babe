package grader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func passRunner(raw any) RunnerFunc {
	return func(ctx context.Context, submission Submission) (any, error) {
		return raw, nil
	}
}

func TestGradeAllChecksPassing(t *testing.T) {
	engine := NewEngine()
	checks := []Check{
		{Name: "syntax", Points: 10, Timeout: time.Second, Run: passRunner(true)},
		{Name: "output", Points: 15, Timeout: time.Second, Run: passRunner(true)},
	}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(nil))
	require.Equal(t, 25.0, record.TotalScore)
	require.Equal(t, 25.0, record.MaxScore)
	require.Equal(t, 100.0, record.Percentage)
	require.Len(t, record.Results, 2)
	require.NotEmpty(t, record.ID)
	require.False(t, record.SubmissionTime.IsZero())
}

func TestGradePartialCredit(t *testing.T) {
	engine := NewEngine()
	checks := []Check{{Name: "halfway", Points: 10, Timeout: time.Second, Run: passRunner(0.5)}}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(nil))
	require.Equal(t, 5.0, record.TotalScore)
	require.Equal(t, StatusPartial, record.Results[0].Status)
}

func TestGradeIsolatesFailingCheck(t *testing.T) {
	engine := NewEngine()
	checks := []Check{
		{Name: "first", Points: 10, Timeout: time.Second, Run: passRunner(true)},
		{Name: "second", Points: 10, Timeout: time.Second, Run: func(ctx context.Context, submission Submission) (any, error) {
			panic("broken check")
		}},
		{Name: "third", Points: 10, Timeout: time.Second, Run: passRunner(true)},
	}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(nil))
	require.Len(t, record.Results, 3)
	require.Equal(t, StatusPass, record.Results[0].Status)
	require.Equal(t, StatusError, record.Results[1].Status)
	require.Equal(t, StatusPass, record.Results[2].Status)
	require.Equal(t, 20.0, record.TotalScore)
}

func TestGradeMissingRunnableDoesNotAbort(t *testing.T) {
	engine := NewEngine()
	checks := []Check{
		{Name: "present", Points: 10, Timeout: time.Second, Run: passRunner(true)},
		{Name: "absent", Points: 10, Timeout: time.Second},
		{Name: "also_present", Points: 5, Timeout: time.Second, Run: passRunner(true)},
	}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(nil))
	require.Equal(t, 15.0, record.TotalScore)
	require.Equal(t, 25.0, record.MaxScore)

	absent, ok := record.Result("absent")
	require.True(t, ok)
	require.Equal(t, StatusError, absent.Status)
	require.Contains(t, absent.Feedback, "no runnable found")
}

func TestGradePreservesCheckOrder(t *testing.T) {
	engine := NewEngine()
	checks := []Check{
		{Name: "zeta", Points: 1, Timeout: time.Second, Run: passRunner(true)},
		{Name: "alpha", Points: 1, Timeout: time.Second, Run: passRunner(true)},
		{Name: "mid", Points: 1, Timeout: time.Second, Run: passRunner(true)},
	}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(nil))
	require.Equal(t, "zeta", record.Results[0].CheckName)
	require.Equal(t, "alpha", record.Results[1].CheckName)
	require.Equal(t, "mid", record.Results[2].CheckName)
}

func TestGradeZeroMaxScoreGuardsPercentage(t *testing.T) {
	engine := NewEngine()

	record := engine.Grade(context.Background(), "hw1", "learner-1", nil, NewSubmission(nil))
	require.Zero(t, record.MaxScore)
	require.Zero(t, record.Percentage)
}

func TestGradeRunnerSeesSubmissionArtifacts(t *testing.T) {
	engine := NewEngine()
	checks := []Check{{
		Name:    "artifact_lookup",
		Points:  10,
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			value, ok := submission.Artifact("answer")
			if !ok {
				return nil, errors.New("answer artifact missing")
			}
			return value == 42, nil
		},
	}}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(map[string]any{"answer": 42}))
	require.Equal(t, 10.0, record.TotalScore)
}

func TestGradeCallableArtifactViaFunctionCheck(t *testing.T) {
	engine := NewEngine()
	double := func(n int) int { return n * 2 }

	checks := []Check{{
		Name:    "double_table",
		Points:  10,
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			raw, ok := submission.Artifact("double")
			if !ok {
				return Scored{Score: 0, Feedback: "function 'double' not found in submission"}, nil
			}
			fn, ok := raw.(func(int) int)
			if !ok {
				return Scored{Score: 0, Feedback: "'double' is not callable"}, nil
			}
			passed := 0
			for _, tc := range []struct{ in, want int }{{1, 2}, {3, 6}, {5, 11}} {
				if fn(tc.in) == tc.want {
					passed++
				}
			}
			return Scored{Score: float64(passed) / 3, Feedback: "passed 2/3 rows"}, nil
		},
	}}

	record := engine.Grade(context.Background(), "hw1", "learner-1", checks, NewSubmission(map[string]any{"double": double}))
	require.InDelta(t, 10.0*2.0/3.0, record.TotalScore, 1e-9)
	require.Equal(t, StatusPartial, record.Results[0].Status)
}
