package grader

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Outcome is the raw, unclassified result of running one check.
type Outcome struct {
	Raw      any
	Err      error
	TimedOut bool
	Elapsed  time.Duration
}

// Sandbox invokes a single check against a submission, measuring elapsed time
// and isolating failures so one broken check never aborts the rest.
type Sandbox interface {
	Run(ctx context.Context, check Check, submission Submission) Outcome
}

type goroutineSandbox struct {
	now func() time.Time
}

// NewSandbox returns a sandbox with preemptive timeout semantics: the runner
// executes on its own goroutine under a deadline-bound context, and the caller
// gets a TIMEOUT outcome as soon as the deadline fires. Runners that honor
// their context (the container-backed kinds) are killed outright; a
// non-cooperative in-process runner keeps its goroutine until it returns, and
// its late result is discarded.
func NewSandbox() Sandbox {
	return &goroutineSandbox{now: time.Now}
}

type runnerResult struct {
	raw any
	err error
}

func (s *goroutineSandbox) Run(ctx context.Context, check Check, submission Submission) Outcome {
	if check.Run == nil {
		return Outcome{Err: fmt.Errorf("check %q has no runnable", check.Name)}
	}

	timeout := check.EffectiveTimeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan runnerResult, 1)
	start := s.now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runnerResult{err: fmt.Errorf("check panicked: %v", r)}
			}
		}()
		raw, err := check.Run(runCtx, submission)
		done <- runnerResult{raw: raw, err: err}
	}()

	select {
	case result := <-done:
		elapsed := s.now().Sub(start)
		if result.err != nil {
			if errors.Is(result.err, context.DeadlineExceeded) && ctx.Err() == nil {
				// A cooperative runner observed the per-check deadline.
				return Outcome{TimedOut: true, Elapsed: elapsed}
			}
			return Outcome{Err: result.err, Elapsed: elapsed}
		}
		if elapsed > timeout {
			// The runner finished after the deadline but before the select
			// observed the context; still counts as a timeout.
			return Outcome{TimedOut: true, Elapsed: elapsed}
		}
		return Outcome{Raw: result.raw, Elapsed: elapsed}
	case <-runCtx.Done():
		elapsed := s.now().Sub(start)
		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err(), Elapsed: elapsed}
		}
		return Outcome{TimedOut: true, Elapsed: elapsed}
	}
}
