// Package interfaces provides abstractions for dependency injection and testability
package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/appbuilder/appbuilder/pkg/types"
)

//go:generate mockgen -destination=../mocks/mock_interfaces.go -package=mocks github.com/appbuilder/appbuilder/pkg/interfaces CommandRunner,BuildNotifier

// CommandRunner executes a single external command, streaming its combined
// stdout and stderr to output as it is produced. A non-nil error means the
// command could not be started or was interrupted; otherwise the exit code is
// returned.
type CommandRunner interface {
	Run(ctx context.Context, cmd types.Command, output io.Writer) (int, error)
}

// BuildNotifier reports build outcomes to the user
type BuildNotifier interface {
	NotifyBuildStart(name string)
	NotifyBuildSuccess(name string, duration time.Duration)
	NotifyBuildFailure(name string, err error)
}
