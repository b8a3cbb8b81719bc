package queue

import (
	"fmt"

	"github.com/appbuilder/appbuilder/pkg/types"
)

// ToolFailure describes the queued command that stopped a run
type ToolFailure struct {
	Label    string
	Command  string
	ExitCode int
	// Output holds the tail of the command's combined output
	Output string
	// Cause is set when the command could not be started or was interrupted
	Cause error
}

// Error implements the error interface
func (f *ToolFailure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("command %q failed: %v", f.Command, f.Cause)
	}
	return fmt.Sprintf("command %q exited with code %d", f.Command, f.ExitCode)
}

// Unwrap exposes both the failure class and the underlying cause
func (f *ToolFailure) Unwrap() []error {
	if f.Cause != nil {
		return []error{types.ErrExternalTool, f.Cause}
	}
	return []error{types.ErrExternalTool}
}

const tailSize = 4096

// tailBuffer keeps the last n bytes written to it
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
