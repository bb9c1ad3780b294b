package agent

import (
	"strconv"
	"time"
)

// argSpec holds the session parameters that shape an agent argv.
type argSpec struct {
	autoApprove bool
	taskID      string
	model       string
	timeout     time.Duration
	workingDir  string
}

// buildArgs composes the argv for a single-shot invocation. A set task id
// resumes that task and omits model selection; otherwise the model is
// passed. The message is always the final argument, as one opaque unit —
// it is never split, whatever delimiters it contains.
func buildArgs(spec argSpec, message string) []string {
	var args []string

	if spec.autoApprove {
		args = append(args, "--yolo")
	}

	if spec.taskID != "" {
		args = append(args, "--taskId", spec.taskID)
	} else if spec.model != "" {
		args = append(args, "--model", spec.model)
	}

	if spec.timeout > 0 {
		args = append(args, "--timeout", strconv.Itoa(int(spec.timeout/time.Second)))
	}

	if spec.workingDir != "" {
		args = append(args, "--cwd", spec.workingDir)
	}

	return append(args, message)
}

// buildInteractiveArgs composes the argv for a persistent interactive
// process. The message is delivered over stdin later, so it does not
// appear here, and neither does a task id: an interactive session carries
// its own context.
func buildInteractiveArgs(spec argSpec) []string {
	var args []string

	if spec.autoApprove {
		args = append(args, "--yolo")
	}

	if spec.model != "" {
		args = append(args, "--model", spec.model)
	}

	if spec.workingDir != "" {
		args = append(args, "--cwd", spec.workingDir)
	}

	return args
}
