package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/appbuilder/appbuilder/internal/engine"
	"github.com/appbuilder/appbuilder/internal/watcher"
	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/process"
	"github.com/appbuilder/appbuilder/pkg/types"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	var settle time.Duration
	var ignores []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever smali sources or extra files change",
		Long: `Run a build, then watch every smali directory and extra file and rebuild
after changes settle. A failed build is reported and watching continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, settle, ignores)
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().DurationVar(&settle, "settle", watcher.DefaultSettle, "quiet period before rebuilding")
	cmd.Flags().StringArrayVar(&ignores, "ignore", nil, "glob of paths that never trigger a rebuild, repeatable")
	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, settle time.Duration, ignores []string) error {
	cfg, err := c.loadBuildConfig(cmd)
	if err != nil {
		return err
	}
	paths := cfg.WatchPaths()
	if len(paths) == 0 {
		return fmt.Errorf("nothing to watch, add --smali-dir or --file: %w", types.ErrConfig)
	}

	pm := process.NewManager(c.logger)
	ctx := pm.Start(cmd.Context())
	defer pm.Stop()

	w, err := watcher.New(c.logger, settle)
	if err != nil {
		return err
	}
	defer w.Close()

	w.Exclude(cfg.BuildDir)
	if err := w.Ignore(ignores...); err != nil {
		return fmt.Errorf("%v: %w", err, types.ErrConfig)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return fmt.Errorf("%v: %w", err, types.ErrNotFound)
		}
	}

	build := func(ctx context.Context) {
		deps := c.dependencies(cfg)
		deps.HandleSignals = false
		if _, err := engine.New(cfg, c.logger, deps).Run(ctx); err != nil {
			c.console.Error(err.Error())
			return
		}
		c.console.Success(fmt.Sprintf("Rebuilt %s", cfg.Stem()))
	}

	build(ctx)
	c.console.Info(fmt.Sprintf("Watching %d path(s), press Ctrl+C to stop", len(paths)))

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		c.logger.Info("Change detected", logger.WithField("paths", changed))
		build(ctx)
	})
	c.console.Info("Stopped watching")
	return err
}
