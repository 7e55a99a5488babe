package checks

import (
	"context"
	"fmt"
	"math"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// numericFactory compiles a numeric-tolerance check. Parameters:
//
//	artifact  name of the submitted value
//	expected  target number
//	tolerance absolute tolerance (default 0)
//	rel_tolerance relative tolerance, applied when > 0
func numericFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}
	expected, ok := numeric(params["expected"])
	if !ok {
		return nil, fmt.Errorf("%q parameter must be numeric", "expected")
	}
	tolerance := floatParam(params, "tolerance", 0)
	relTolerance := floatParam(params, "rel_tolerance", 0)

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		raw, present := submission.Artifact(artifact)
		if !present {
			return missingArtifact(artifact), nil
		}

		actual, ok := numericLoose(raw)
		if !ok {
			return grader.Scored{Score: 0, Feedback: fmt.Sprintf("artifact %q is not numeric: %v", artifact, raw)}, nil
		}

		diff := math.Abs(actual - expected)
		if diff <= tolerance {
			return true, nil
		}
		if relTolerance > 0 && diff <= relTolerance*math.Abs(expected) {
			return true, nil
		}

		return grader.Scored{
			Score:    0,
			Feedback: fmt.Sprintf("expected %v (±%v), got %v", expected, tolerance, actual),
		}, nil
	}, nil
}
