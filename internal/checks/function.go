package checks

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// functionFactory compiles a table-driven check for a callable artifact.
// Parameters:
//
//	artifact       name of the callable artifact
//	cases          [{"args": [...], "expected": ...}, ...]
//	partial_credit proportional credit per passing row (default true)
//
// Only usable when the engine is embedded as a library, where submissions can
// carry real functions.
func functionFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}

	rawCases, ok := params["cases"].([]any)
	if !ok || len(rawCases) == 0 {
		return nil, fmt.Errorf("function check needs a non-empty %q list", "cases")
	}

	type tableCase struct {
		args     []any
		expected any
	}
	cases := make([]tableCase, 0, len(rawCases))
	for i, raw := range rawCases {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("case %d must be an object with args and expected", i+1)
		}
		tc := tableCase{expected: entry["expected"]}
		switch args := entry["args"].(type) {
		case []any:
			tc.args = args
		case nil:
			if input, ok := entry["input"]; ok {
				tc.args = []any{input}
			}
		default:
			tc.args = []any{args}
		}
		cases = append(cases, tc)
	}

	partialCredit := boolParam(params, "partial_credit", true)

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		raw, present := submission.Artifact(artifact)
		if !present {
			return grader.Scored{Score: 0, Feedback: fmt.Sprintf("function %q not found in submission", artifact)}, nil
		}

		fn := reflect.ValueOf(raw)
		if !fn.IsValid() || fn.Kind() != reflect.Func {
			return grader.Scored{Score: 0, Feedback: fmt.Sprintf("%q is not a callable function", artifact)}, nil
		}

		passed := 0
		lines := make([]string, 0, len(cases))
		for i, tc := range cases {
			got, err := callFunction(fn, tc.args)
			switch {
			case err != nil:
				lines = append(lines, fmt.Sprintf("row %d: error - %v", i+1, err))
			case valuesMatch(got, tc.expected):
				passed++
				lines = append(lines, fmt.Sprintf("row %d: passed", i+1))
			default:
				lines = append(lines, fmt.Sprintf("row %d: expected %v, got %v", i+1, tc.expected, got))
			}
		}

		score := float64(passed) / float64(len(cases))
		if !partialCredit && passed != len(cases) {
			score = 0
		}
		feedback := fmt.Sprintf("passed %d/%d rows\n%s", passed, len(cases), strings.Join(lines, "\n"))
		return grader.Scored{Score: score, Feedback: feedback}, nil
	}, nil
}

func callFunction(fn reflect.Value, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("function panicked: %v", r)
		}
	}()

	fnType := fn.Type()
	if fnType.NumIn() != len(args) {
		return nil, fmt.Errorf("expects %d arguments, got %d", fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		value := reflect.ValueOf(arg)
		paramType := fnType.In(i)
		if !value.IsValid() {
			in[i] = reflect.Zero(paramType)
			continue
		}
		if value.Type() != paramType {
			if !value.Type().ConvertibleTo(paramType) {
				return nil, fmt.Errorf("argument %d: cannot use %T", i+1, arg)
			}
			value = value.Convert(paramType)
		}
		in[i] = value
	}

	out := fn.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	// A trailing error return fails the row.
	if last := out[len(out)-1]; last.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func valuesMatch(got, expected any) bool {
	if gotNum, ok := numeric(got); ok {
		if expectedNum, ok := numeric(expected); ok {
			return math.Abs(gotNum-expectedNum) <= 1e-9
		}
	}
	return reflect.DeepEqual(got, expected)
}
