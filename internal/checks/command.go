package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/pkg/exec"
)

// commandFactory compiles a container-backed check. Parameters:
//
//	image           container image to run
//	cmd             command and arguments
//	env             optional environment entries ("KEY=value")
//	source_artifact optional text artifact written into the workspace
//	filename        workspace filename for the source artifact
//
// Exit code 0 passes; anything else fails with stdout/stderr as feedback. The
// container inherits the check deadline and is killed when it fires.
func commandFactory(executor exec.Executor) Factory {
	return func(params map[string]any) (grader.RunnerFunc, error) {
		image, err := stringParam(params, "image")
		if err != nil {
			return nil, err
		}
		cmd := stringSliceParam(params, "cmd")
		if len(cmd) == 0 {
			return nil, fmt.Errorf("command check needs a non-empty %q list", "cmd")
		}
		env := stringSliceParam(params, "env")
		sourceArtifact := optionalStringParam(params, "source_artifact")
		filename := optionalStringParam(params, "filename")
		if sourceArtifact != "" && filename == "" {
			return nil, fmt.Errorf("%q requires %q", "source_artifact", "filename")
		}

		return func(ctx context.Context, submission grader.Submission) (any, error) {
			request := exec.Request{Image: image, Cmd: cmd, Env: env}

			if sourceArtifact != "" {
				source, present := textArtifact(submission, sourceArtifact)
				if !present {
					return missingArtifact(sourceArtifact), nil
				}
				workspace, err := os.MkdirTemp("", "gradehub-check-")
				if err != nil {
					return nil, fmt.Errorf("create workspace: %w", err)
				}
				defer os.RemoveAll(workspace)
				if err := os.WriteFile(filepath.Join(workspace, filename), []byte(source), 0o644); err != nil {
					return nil, fmt.Errorf("write source artifact: %w", err)
				}
				request.Workspace = workspace
			}

			result, err := executor.Run(ctx, request)
			if err != nil {
				return nil, err
			}

			if result.ExitCode == 0 {
				return true, nil
			}

			feedback := strings.TrimSpace(result.Stderr)
			if feedback == "" {
				feedback = strings.TrimSpace(result.Stdout)
			}
			if feedback == "" {
				feedback = fmt.Sprintf("command exited with code %d", result.ExitCode)
			}
			return grader.Scored{Score: 0, Feedback: feedback}, nil
		}, nil
	}
}
