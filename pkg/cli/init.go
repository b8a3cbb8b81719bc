package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appbuilder/appbuilder/pkg/config"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example appbuilder.yaml",
		Long: `Create an appbuilder.yaml in the current directory (or at --config) listing
every option with an example value.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if err := config.NewManager().WriteTemplate(path, force); err != nil {
				return err
			}
			c.console.Success(fmt.Sprintf("Created configuration at %s", path))
			c.console.Info("Edit original_app, smali_dirs and keystore before running appbuilder build")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration")
	return cmd
}

func (c *CLI) configPath() string {
	if c.config.ConfigFile != "" {
		return c.config.ConfigFile
	}
	return config.DefaultConfigName + ".yaml"
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "appbuilder v%s\n", c.config.Version)
		},
	}
}
