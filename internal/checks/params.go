package checks

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
)

func stringParam(params map[string]any, key string) (string, error) {
	value, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing %q parameter", key)
	}
	str, ok := value.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("%q parameter must be a non-empty string", key)
	}
	return str, nil
}

func optionalStringParam(params map[string]any, key string) string {
	if str, ok := params[key].(string); ok {
		return str
	}
	return ""
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	if value, ok := numeric(params[key]); ok {
		return value
	}
	return fallback
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if value, ok := params[key].(bool); ok {
		return value
	}
	return fallback
}

func stringSliceParam(params map[string]any, key string) []string {
	result := []string{}
	switch value := params[key].(type) {
	case []any:
		for _, item := range value {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
	case []string:
		result = append(result, value...)
	}
	return result
}

// numeric accepts the shapes a parameter value arrives in: native Go numbers
// from the request body and json.Number from params rescanned out of a
// datatypes.JSONMap column.
func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// numericLoose also accepts numbers embedded in strings, so a text artifact
// like "3.14 m/s" still grades against a numeric expectation.
func numericLoose(value any) (float64, bool) {
	if v, ok := numeric(value); ok {
		return v, true
	}
	str, ok := value.(string)
	if !ok {
		return 0, false
	}
	str = strings.TrimSpace(str)
	if v, err := strconv.ParseFloat(str, 64); err == nil {
		return v, true
	}
	if fields := strings.Fields(str); len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func textArtifact(submission grader.Submission, name string) (string, bool) {
	value, ok := submission.Artifact(name)
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func missingArtifact(name string) grader.Scored {
	return grader.Scored{Score: 0, Feedback: fmt.Sprintf("artifact %q not found in submission", name)}
}
