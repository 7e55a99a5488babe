package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// keywordsFactory compiles a keyword-coverage check: credit is the fraction of
// required keywords found (case-insensitively) in the text artifact.
func keywordsFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}
	keywords := stringSliceParam(params, "keywords")
	if len(keywords) == 0 {
		return nil, fmt.Errorf("keywords check needs at least one keyword")
	}

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		text, present := textArtifact(submission, artifact)
		if !present {
			return missingArtifact(artifact), nil
		}

		lower := strings.ToLower(text)
		found := 0
		var missing []string
		for _, keyword := range keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(keyword)) {
				found++
			} else {
				missing = append(missing, keyword)
			}
		}

		if found == len(keywords) {
			return true, nil
		}

		feedback := fmt.Sprintf("keyword hits: %d/%d", found, len(keywords))
		if len(missing) > 0 {
			feedback += "; missing: " + strings.Join(missing, ", ")
		}
		return grader.Scored{Score: float64(found) / float64(len(keywords)), Feedback: feedback}, nil
	}, nil
}
