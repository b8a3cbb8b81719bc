package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/appbuilder/appbuilder/internal/engine"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the APK once",
		Long: `Stage a copy of the original APK, add compiled smali and extra files,
sign it and optionally install it. The first failing tool stops the build and
leaves the build directory in place.`,
		Args: cobra.NoArgs,
		RunE: c.runBuild,
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadBuildConfig(cmd)
	if err != nil {
		return err
	}

	result, err := engine.New(cfg, c.logger, c.dependencies(cfg)).Run(cmd.Context())
	if err != nil {
		return err
	}

	switch {
	case result.Installed:
		c.console.Success(fmt.Sprintf("Installed %s in %s", cfg.Stem(), result.Duration.Round(time.Millisecond)))
	case !result.Cleaned && result.Signed:
		c.console.Success(fmt.Sprintf("Built %s", result.Workspace.SignedArchive))
	case !result.Cleaned:
		c.console.Success(fmt.Sprintf("Built %s", result.Workspace.UnsignedArchive))
	default:
		c.console.Success(fmt.Sprintf("Built %s (build directory cleaned, use --no-clean to keep it)", cfg.Stem()))
	}
	return nil
}
