package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/appbuilder/appbuilder/pkg/config"
	bcontext "github.com/appbuilder/appbuilder/pkg/context"
	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/process"
	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/steps"
	"github.com/appbuilder/appbuilder/pkg/types"
	"github.com/appbuilder/appbuilder/pkg/workspace"
)

// Result summarizes a successful run
type Result struct {
	RunID      string
	Workspace  *workspace.Workspace
	Operations int
	Signed     bool
	Installed  bool
	Cleaned    bool
	Duration   time.Duration
}

// Orchestrator runs the build sequence for one configuration
type Orchestrator struct {
	cfg        *types.BuildConfig
	logger     logger.Logger
	deps       Dependencies
	workspaces *workspace.Manager
}

// New creates an orchestrator. cfg is not modified.
func New(cfg *types.BuildConfig, log logger.Logger, deps Dependencies) *Orchestrator {
	if log == nil {
		log = logger.Discard()
	}
	if deps.Output == nil {
		deps.Output = io.Discard
	}
	if deps.Runner == nil {
		deps.Runner = queue.NewExecRunner()
	}
	return &Orchestrator{
		cfg:        config.Normalize(cfg),
		logger:     log,
		deps:       deps,
		workspaces: workspace.NewManager(log),
	}
}

// Run validates the configuration, stages the workspace, plans every step,
// executes the queue, and cleans the build directory after a successful
// drain. The first failing external command aborts the run; the build
// directory is then left in place.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	ctx = bcontext.NewRun(ctx)
	log := logger.WithContext(ctx, o.logger)

	if err := o.validate(log); err != nil {
		return nil, err
	}

	scope := process.NewScope()
	defer func() {
		if err := scope.Close(); err != nil {
			log.Warn("Failed to release temporary files", logger.WithField("error", err))
		}
	}()

	if o.deps.HandleSignals {
		pm := process.NewManager(log)
		pm.RegisterShutdownHandler(func() { _ = scope.Close() })
		ctx = pm.Start(ctx)
		defer pm.Stop()
	}

	name := o.cfg.Stem()
	if o.deps.Notifier != nil {
		o.deps.Notifier.NotifyBuildStart(name)
	}

	result, err := o.run(ctx, log, scope)
	if err != nil {
		log.Error("Build failed", logger.WithField("error", err))
		if o.deps.Notifier != nil {
			o.deps.Notifier.NotifyBuildFailure(name, err)
		}
		return nil, err
	}

	result.RunID = bcontext.GetRunID(ctx)
	result.Duration = bcontext.GetDuration(ctx)
	if o.deps.Notifier != nil {
		o.deps.Notifier.NotifyBuildSuccess(name, result.Duration)
	}
	log.Success(fmt.Sprintf("Build of %s completed", name))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, log logger.Logger, scope *process.Scope) (*Result, error) {
	ws, err := o.workspaces.Stage(o.cfg)
	if err != nil {
		return nil, err
	}

	q := o.newQueue(log)
	if err := o.plan(ws, q, scope, log, false); err != nil {
		return nil, err
	}

	result := &Result{
		Workspace:  ws,
		Operations: q.Len(),
		Signed:     o.cfg.SignRequested(),
		Installed:  o.cfg.Install,
	}

	log.Info("Executing build queue", logger.WithField("operations", q.Len()))
	if err := q.ExecuteAll(ctx); err != nil {
		return nil, err
	}

	if o.cfg.NoClean {
		log.Info("Keeping build files", logger.WithField("dir", ws.BuildDir))
		return result, nil
	}
	if err := o.workspaces.Clean(ws); err != nil {
		return nil, err
	}
	result.Cleaned = true
	return result, nil
}

// Plan returns the operations a run would execute without staging or
// running anything
func (o *Orchestrator) Plan(ctx context.Context) ([]queue.PlanEntry, error) {
	ctx = bcontext.NewRun(ctx)
	log := logger.WithContext(ctx, o.logger)

	if err := o.validate(log); err != nil {
		return nil, err
	}
	ws, err := workspace.Resolve(o.cfg)
	if err != nil {
		return nil, err
	}

	scope := process.NewScope()
	defer scope.Close()

	q := o.newQueue(log)
	if err := o.plan(ws, q, scope, log, true); err != nil {
		return nil, err
	}
	return q.Plan(), nil
}

func (o *Orchestrator) validate(log logger.Logger) error {
	warnings, err := config.NewManager().Validate(o.cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	return nil
}

func (o *Orchestrator) newQueue(log logger.Logger) *queue.CommandQueue {
	return queue.New(o.deps.Runner,
		queue.WithOutput(o.deps.Output),
		queue.WithLogger(log.WithStep("queue")),
	)
}

// plan enqueues the fixed step sequence: compile/pack, extra files, sign,
// install. Steps are skipped, never reordered. A dry run leaves the
// filesystem untouched.
func (o *Orchestrator) plan(ws *workspace.Workspace, q *queue.CommandQueue, scope *process.Scope, log logger.Logger, dryRun bool) error {
	cfg := o.cfg
	packager := steps.NewPackager(q, ws, cfg.Tools)

	if len(cfg.SmaliDirs) > 0 {
		if err := packager.CompileAndPack(cfg.SmaliDirs); err != nil {
			return err
		}
	}

	if len(cfg.ExtraFiles) > 0 {
		if err := packager.AddExtraFiles(cfg.ExtraFiles); err != nil {
			return err
		}
	}

	if cfg.SignRequested() {
		opts := []steps.SignerOption{
			steps.WithTempDir(o.deps.TempDir),
			steps.WithSignerLogger(log),
		}
		if dryRun {
			opts = append(opts, steps.WithDryRun())
		}
		signer := steps.NewSigner(q, cfg.Tools, cfg.Keystore, scope, opts...)
		if _, err := signer.SignArchive(ws.UnsignedArchive, ws.SignedArchive); err != nil {
			return err
		}
		if cfg.SignAll && len(cfg.AdditionalApps) > 0 {
			if _, err := signer.SignMultiple(cfg.AdditionalApps); err != nil {
				return err
			}
		}
	}

	if cfg.Install {
		archives := append(append([]string(nil), cfg.AdditionalApps...), ws.SignedArchive)
		if err := steps.NewDeployer(q, cfg.Tools).Install(cfg.Target(), archives); err != nil {
			return err
		}
	}

	log.Debug("Planned build", logger.WithField("operations", q.Len()))
	return nil
}
