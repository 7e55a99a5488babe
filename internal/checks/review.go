package checks

import (
	"context"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/pkg/review"
)

// reviewFactory compiles a rubric-review check backed by an AI reviewer.
// Parameters:
//
//	artifact name of the free-form artifact to judge
//	rubric   grading rubric handed to the reviewer
func reviewFactory(reviewer review.Reviewer) Factory {
	return func(params map[string]any) (grader.RunnerFunc, error) {
		artifact, err := stringParam(params, "artifact")
		if err != nil {
			return nil, err
		}
		rubric, err := stringParam(params, "rubric")
		if err != nil {
			return nil, err
		}

		return func(ctx context.Context, submission grader.Submission) (any, error) {
			text, present := textArtifact(submission, artifact)
			if !present {
				return missingArtifact(artifact), nil
			}

			result, err := reviewer.Review(ctx, review.Input{
				CheckName: optionalStringParam(params, "check_name"),
				Rubric:    rubric,
				Artifact:  text,
			})
			if err != nil {
				return nil, err
			}

			feedback := result.Feedback
			if result.Verdict != "" && feedback == "" {
				feedback = result.Verdict
			}
			return grader.Scored{Score: result.Score, Feedback: feedback}, nil
		}, nil
	}
}
