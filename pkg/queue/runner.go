package queue

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/appbuilder/appbuilder/pkg/types"
)

// ExecRunner runs commands as host processes
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the command and waits for it. Stdout and stderr share output so
// they interleave in the order produced.
func (r *ExecRunner) Run(ctx context.Context, c types.Command, output io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = output
	cmd.Stderr = output
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
