package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// regexFactory compiles a pattern check over a text artifact. Parameters:
//
//	artifact       name of the text artifact
//	must_match     patterns that have to appear
//	must_not_match patterns that must be absent
//
// Credit is proportional: matched constraints over total constraints.
func regexFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}

	mustMatch := stringSliceParam(params, "must_match")
	mustNotMatch := stringSliceParam(params, "must_not_match")
	if len(mustMatch)+len(mustNotMatch) == 0 {
		return nil, fmt.Errorf("regex check needs at least one must_match or must_not_match pattern")
	}

	compiled := make([]*regexp.Regexp, 0, len(mustMatch))
	for _, pattern := range mustMatch {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid must_match pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	compiledNot := make([]*regexp.Regexp, 0, len(mustNotMatch))
	for _, pattern := range mustNotMatch {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid must_not_match pattern %q: %w", pattern, err)
		}
		compiledNot = append(compiledNot, re)
	}

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		text, present := textArtifact(submission, artifact)
		if !present {
			return missingArtifact(artifact), nil
		}

		var failures []string
		for _, re := range compiled {
			if !re.MatchString(text) {
				failures = append(failures, fmt.Sprintf("missing expected pattern: %s", re.String()))
			}
		}
		for _, re := range compiledNot {
			if re.MatchString(text) {
				failures = append(failures, fmt.Sprintf("found forbidden pattern: %s", re.String()))
			}
		}

		total := len(compiled) + len(compiledNot)
		passed := total - len(failures)
		if len(failures) == 0 {
			return true, nil
		}

		return grader.Scored{
			Score:    float64(passed) / float64(total),
			Feedback: strings.Join(failures, "; "),
		}, nil
	}, nil
}
