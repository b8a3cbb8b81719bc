package engine

import (
	"io"
	"os"

	"github.com/appbuilder/appbuilder/pkg/interfaces"
	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/notifier"
	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// Dependencies are the collaborators of an Orchestrator
type Dependencies struct {
	Runner interfaces.CommandRunner
	// Notifier is optional
	Notifier interfaces.BuildNotifier
	// Output receives the streamed output of external tools
	Output io.Writer
	// TempDir holds aligned intermediates; empty means os.TempDir
	TempDir string
	// HandleSignals cancels the run and releases temporaries on SIGINT/SIGTERM
	HandleSignals bool
}

// DependencyFactory creates default implementations of dependencies
type DependencyFactory struct {
	logger logger.Logger
	config *types.BuildConfig
}

// NewDependencyFactory creates a new dependency factory
func NewDependencyFactory(log logger.Logger, cfg *types.BuildConfig) *DependencyFactory {
	return &DependencyFactory{
		logger: log,
		config: cfg,
	}
}

// CreateDefaults wires host process execution, stdout streaming, signal
// handling and, when enabled, desktop notifications
func (f *DependencyFactory) CreateDefaults() Dependencies {
	deps := Dependencies{
		Runner:        queue.NewExecRunner(),
		Output:        os.Stdout,
		HandleSignals: true,
	}
	if f.config.Notify {
		deps.Notifier = notifier.New(notifier.Config{Enabled: true, BeepOnFailure: true}, f.logger)
	}
	return deps
}
