package grader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSandboxReturnsRawResultAndElapsedTime(t *testing.T) {
	sandbox := NewSandbox()
	check := Check{
		Name:    "echo",
		Points:  5,
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			return true, nil
		},
	}

	outcome := sandbox.Run(context.Background(), check, NewSubmission(nil))
	require.NoError(t, outcome.Err)
	require.False(t, outcome.TimedOut)
	require.Equal(t, true, outcome.Raw)
	require.GreaterOrEqual(t, outcome.Elapsed, time.Duration(0))
}

func TestSandboxCapturesRunnerError(t *testing.T) {
	sandbox := NewSandbox()
	check := Check{
		Name:    "broken",
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			return nil, errors.New("artifact missing")
		},
	}

	outcome := sandbox.Run(context.Background(), check, NewSubmission(nil))
	require.Error(t, outcome.Err)
	require.Contains(t, outcome.Err.Error(), "artifact missing")
}

func TestSandboxRecoversPanic(t *testing.T) {
	sandbox := NewSandbox()
	check := Check{
		Name:    "explosive",
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			panic("nil map write")
		},
	}

	outcome := sandbox.Run(context.Background(), check, NewSubmission(nil))
	require.Error(t, outcome.Err)
	require.Contains(t, outcome.Err.Error(), "panicked")
}

func TestSandboxPreemptsSlowRunner(t *testing.T) {
	sandbox := NewSandbox()
	check := Check{
		Name:    "sleepy",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return true, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}

	start := time.Now()
	outcome := sandbox.Run(context.Background(), check, NewSubmission(nil))
	require.True(t, outcome.TimedOut)
	require.Less(t, time.Since(start), time.Second, "caller must not wait for the full sleep")
}

func TestSandboxMissingRunnable(t *testing.T) {
	sandbox := NewSandbox()
	outcome := sandbox.Run(context.Background(), Check{Name: "ghost"}, NewSubmission(nil))
	require.Error(t, outcome.Err)
}

func TestSandboxPropagatesCallerCancellation(t *testing.T) {
	sandbox := NewSandbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := Check{
		Name:    "cancelled",
		Timeout: time.Second,
		Run: func(ctx context.Context, submission Submission) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	outcome := sandbox.Run(ctx, check, NewSubmission(nil))
	require.False(t, outcome.TimedOut)
	require.Error(t, outcome.Err)
}
