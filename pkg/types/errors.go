package types

import "errors"

// Sentinel errors for build failures. Wrap them with fmt.Errorf("...: %w") and
// check with errors.Is.
var (
	// ErrConfig indicates an invalid or contradictory configuration
	ErrConfig = errors.New("invalid configuration")

	// ErrNotFound indicates a required input path does not exist
	ErrNotFound = errors.New("not found")

	// ErrPathConflict indicates two paths that must differ resolve to the same location
	ErrPathConflict = errors.New("path conflict")

	// ErrExternalTool indicates a queued external command exited non-zero
	ErrExternalTool = errors.New("external tool failed")

	// ErrIO indicates a filesystem operation on the workspace failed
	ErrIO = errors.New("workspace I/O failure")
)
