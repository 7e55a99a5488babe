package grader

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func normalizeCheck() Check {
	return Check{Name: "fib_values", Points: 10, Timeout: 2 * time.Second}
}

func TestNormalizeBooleanTrueAwardsFullPoints(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: true})
	require.Equal(t, StatusPass, result.Status)
	require.Equal(t, 10.0, result.PointsEarned)
}

func TestNormalizeBooleanFalseAwardsZero(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: false})
	require.Equal(t, StatusFail, result.Status)
	require.Zero(t, result.PointsEarned)
}

func TestNormalizeFractionScalesPoints(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: 0.5})
	require.Equal(t, StatusPartial, result.Status)
	require.Equal(t, 5.0, result.PointsEarned)
	require.Contains(t, result.Feedback, "50.0%")
}

func TestNormalizeFractionOneIsPassNotPartial(t *testing.T) {
	for _, raw := range []any{1.0, 1, float32(1), json.Number("1")} {
		result := Normalize(normalizeCheck(), Outcome{Raw: raw})
		require.Equal(t, StatusPass, result.Status, "raw %v must resolve to PASS", raw)
		require.Equal(t, 10.0, result.PointsEarned)
	}
}

func TestNormalizeJSONNumberFractionScalesPoints(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: json.Number("0.5")})
	require.Equal(t, StatusPartial, result.Status)
	require.Equal(t, 5.0, result.PointsEarned)

	scored := Normalize(normalizeCheck(), Outcome{Raw: map[string]any{"score": json.Number("0.75"), "feedback": "rescanned"}})
	require.Equal(t, StatusPartial, scored.Status)
	require.Equal(t, 7.5, scored.PointsEarned)
	require.Equal(t, "rescanned", scored.Feedback)
}

func TestNormalizeFractionZeroIsPartialWithZeroPoints(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: 0.0})
	require.Equal(t, StatusPartial, result.Status)
	require.Zero(t, result.PointsEarned)
}

func TestNormalizeScoredPreservesFeedbackVerbatim(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: Scored{Score: 0.75, Feedback: "3 of 4 rows matched"}})
	require.Equal(t, StatusPartial, result.Status)
	require.Equal(t, 7.5, result.PointsEarned)
	require.Equal(t, "3 of 4 rows matched", result.Feedback)
}

func TestNormalizeScoredMapMatchesScoredStruct(t *testing.T) {
	raw := map[string]any{"score": 0.75, "feedback": "3 of 4 rows matched"}
	fromMap := Normalize(normalizeCheck(), Outcome{Raw: raw})
	fromStruct := Normalize(normalizeCheck(), Outcome{Raw: Scored{Score: 0.75, Feedback: "3 of 4 rows matched"}})
	require.Equal(t, fromStruct.Status, fromMap.Status)
	require.Equal(t, fromStruct.PointsEarned, fromMap.PointsEarned)
	require.Equal(t, fromStruct.Feedback, fromMap.Feedback)
}

func TestNormalizeScoredDefaultsFeedback(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: map[string]any{"score": 1.0}})
	require.Equal(t, StatusPass, result.Status)
	require.Equal(t, "no feedback provided", result.Feedback)
}

func TestNormalizeScoredClampsOutOfRangeScore(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: Scored{Score: 1.5, Feedback: "generous"}})
	require.Equal(t, 10.0, result.PointsEarned)
	require.LessOrEqual(t, result.PointsEarned, result.PointsPossible)

	result = Normalize(normalizeCheck(), Outcome{Raw: Scored{Score: -0.5}})
	require.Zero(t, result.PointsEarned)
}

func TestNormalizeOutOfRangeNumericFails(t *testing.T) {
	for _, raw := range []any{1.2, -0.1, 42} {
		result := Normalize(normalizeCheck(), Outcome{Raw: raw})
		require.Equal(t, StatusFail, result.Status, "raw %v", raw)
		require.Zero(t, result.PointsEarned)
	}
}

func TestNormalizeUnrecognizedShapeIncludesRawValue(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: []string{"what", "is", "this"}})
	require.Equal(t, StatusFail, result.Status)
	require.Contains(t, result.Feedback, "unrecognized result shape")
	require.Contains(t, result.Feedback, "what")
}

func TestNormalizeMapWithoutScoreKeyFails(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: map[string]any{"feedback": "missing score"}})
	require.Equal(t, StatusFail, result.Status)
	require.Zero(t, result.PointsEarned)
}

func TestNormalizeErrorSignalWinsOverRawValue(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{Raw: true, Err: errors.New("boom")})
	require.Equal(t, StatusError, result.Status)
	require.Zero(t, result.PointsEarned)
	require.Contains(t, result.Feedback, "boom")
}

func TestNormalizeTimeoutSignal(t *testing.T) {
	result := Normalize(normalizeCheck(), Outcome{TimedOut: true, Elapsed: 3 * time.Second})
	require.Equal(t, StatusTimeout, result.Status)
	require.Zero(t, result.PointsEarned)
	require.Contains(t, result.Feedback, "timed out")
}

func TestNormalizeResultBoundsInvariant(t *testing.T) {
	raws := []any{true, false, 0.0, 0.3, 1.0, 2.0, "garbage", Scored{Score: 5}, map[string]any{"score": -1.0}}
	for _, raw := range raws {
		result := Normalize(normalizeCheck(), Outcome{Raw: raw})
		require.GreaterOrEqual(t, result.PointsEarned, 0.0, "raw %v", raw)
		require.LessOrEqual(t, result.PointsEarned, result.PointsPossible, "raw %v", raw)
	}
}
