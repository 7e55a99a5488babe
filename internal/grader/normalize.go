package grader

import (
	"encoding/json"
	"fmt"
)

// Normalize maps a check's raw outcome into a CheckResult. The rule order is
// load-bearing: signals first, then booleans, then bare fractions (where a
// numeric 1 resolves to PASS, not PARTIAL), then structured score/feedback
// records, and finally the catch-all failure for unrecognized shapes.
func Normalize(check Check, outcome Outcome) CheckResult {
	result := CheckResult{
		CheckName:      check.Name,
		Description:    check.Description,
		PointsPossible: check.Points,
		ExecutionTime:  outcome.Elapsed,
	}

	switch {
	case outcome.TimedOut:
		result.Status = StatusTimeout
		result.Feedback = fmt.Sprintf("check timed out after %s", check.EffectiveTimeout())
		return result

	case outcome.Err != nil:
		result.Status = StatusError
		result.Feedback = fmt.Sprintf("error during check execution: %v", outcome.Err)
		return result
	}

	switch raw := outcome.Raw.(type) {
	case bool:
		if raw {
			result.Status = StatusPass
			result.PointsEarned = check.Points
			result.Feedback = "check passed successfully"
		} else {
			result.Status = StatusFail
			result.Feedback = "check failed"
		}
		return result

	case Scored:
		return scoredResult(check, result, raw.Score, raw.Feedback)

	case *Scored:
		if raw == nil {
			break
		}
		return scoredResult(check, result, raw.Score, raw.Feedback)

	case map[string]any:
		score, ok := numericValue(raw["score"])
		if !ok {
			break
		}
		feedback := ""
		if fb, present := raw["feedback"]; present {
			feedback = fmt.Sprintf("%v", fb)
		}
		return scoredResult(check, result, score, feedback)
	}

	if fraction, ok := numericValue(outcome.Raw); ok && fraction >= 0 && fraction <= 1 {
		result.PointsEarned = fraction * check.Points
		if fraction == 1 {
			result.Status = StatusPass
			result.Feedback = "check passed successfully"
		} else {
			result.Status = StatusPartial
			result.Feedback = fmt.Sprintf("partial credit: %.1f%%", fraction*100)
		}
		return result
	}

	result.Status = StatusFail
	result.Feedback = fmt.Sprintf("check returned an unrecognized result shape: %v", outcome.Raw)
	return result
}

// scoredResult applies the fraction scaling rule to a structured score. The
// score is clamped into [0,1] so PointsEarned can never leave
// [0, PointsPossible], unlike the unchecked scaling this replaces.
func scoredResult(check Check, result CheckResult, score float64, feedback string) CheckResult {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	result.PointsEarned = score * check.Points
	if score == 1 {
		result.Status = StatusPass
	} else {
		result.Status = StatusPartial
	}

	if feedback == "" {
		feedback = "no feedback provided"
	}
	result.Feedback = feedback
	return result
}

// numericValue accepts native Go numbers plus json.Number, which is how JSON
// numbers come back once a result or artifact has been through a JSON column.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
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
