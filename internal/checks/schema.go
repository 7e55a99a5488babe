package checks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// schemaFactory compiles a JSON Schema check: the artifact document must
// validate against the schema stored in the check parameters. Parameters:
//
//	artifact name of the document artifact
//	schema   the JSON Schema, inline object or string
func schemaFactory(params map[string]any) (grader.RunnerFunc, error) {
	artifact, err := stringParam(params, "artifact")
	if err != nil {
		return nil, err
	}

	schemaSource, err := schemaString(params["schema"])
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.CompileString("check.schema.json", schemaSource)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return func(ctx context.Context, submission grader.Submission) (any, error) {
		raw, present := submission.Artifact(artifact)
		if !present {
			return missingArtifact(artifact), nil
		}

		document, err := decodeDocument(raw)
		if err != nil {
			return grader.Scored{Score: 0, Feedback: fmt.Sprintf("artifact %q is not a JSON document: %v", artifact, err)}, nil
		}

		if err := schema.Validate(document); err != nil {
			return grader.Scored{Score: 0, Feedback: fmt.Sprintf("schema validation failed: %v", err)}, nil
		}
		return true, nil
	}, nil
}

func schemaString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("missing %q parameter", "schema")
		}
		return v, nil
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode schema: %w", err)
		}
		return string(encoded), nil
	default:
		return "", fmt.Errorf("missing %q parameter", "schema")
	}
}

// decodeDocument brings the artifact into the plain JSON value space the
// validator understands.
func decodeDocument(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		var document any
		if err := json.Unmarshal([]byte(v), &document); err != nil {
			return nil, err
		}
		return document, nil
	case []byte:
		var document any
		if err := json.Unmarshal(v, &document); err != nil {
			return nil, err
		}
		return document, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var document any
		if err := json.Unmarshal(encoded, &document); err != nil {
			return nil, err
		}
		return document, nil
	}
}
