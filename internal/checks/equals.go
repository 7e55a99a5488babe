package checks

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// equalsFactory compiles an exact-comparison check. Parameters:
//
//	artifact  name of the submitted value to compare
//	expected  the expected value (any JSON shape)
//	as_set    treat arrays as order-insensitive string sets
//	fold_case case-insensitive comparison for strings
func equalsFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}
	expected, ok := params["expected"]
	if !ok {
		return nil, fmt.Errorf("missing %q parameter", "expected")
	}
	asSet := boolParam(params, "as_set", false)
	foldCase := boolParam(params, "fold_case", false)

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		actual, present := submission.Artifact(artifact)
		if !present {
			return missingArtifact(artifact), nil
		}

		if asSet {
			return equalStringSets(actual, expected, foldCase), nil
		}

		if foldCase {
			if actualStr, ok := actual.(string); ok {
				if expectedStr, ok := expected.(string); ok {
					return strings.EqualFold(strings.TrimSpace(actualStr), strings.TrimSpace(expectedStr)), nil
				}
			}
		}

		if actualNum, ok := numeric(actual); ok {
			if expectedNum, ok := numeric(expected); ok {
				return actualNum == expectedNum, nil
			}
		}

		return reflect.DeepEqual(actual, expected), nil
	}, nil
}

func equalStringSets(actual, expected any, foldCase bool) bool {
	actualSet, ok := toStringSlice(actual)
	if !ok {
		return false
	}
	expectedSet, ok := toStringSlice(expected)
	if !ok {
		return false
	}
	if len(actualSet) != len(expectedSet) {
		return false
	}

	normalize := func(values []string) []string {
		out := make([]string, len(values))
		for i, v := range values {
			if foldCase {
				v = strings.ToLower(v)
			}
			out[i] = strings.TrimSpace(v)
		}
		sort.Strings(out)
		return out
	}

	return reflect.DeepEqual(normalize(actualSet), normalize(expectedSet))
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
