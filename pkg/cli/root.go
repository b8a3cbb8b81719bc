// Package cli provides the command-line interface for appbuilder
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/appbuilder/appbuilder/internal/engine"
	"github.com/appbuilder/appbuilder/pkg/config"
	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// commands that must work without a readable config file
const annotationSkipConfig = "skip-config"

// CLI holds the command tree and its runtime state
type CLI struct {
	config   *Config
	rootCmd  *cobra.Command
	viper    *viper.Viper
	logger   logger.Logger
	console  *logger.ConsoleLogger
	output   io.Writer
	errorOut io.Writer
	deps     DependencyFunc
	lookup   engine.LookupFunc
}

// NewCLI creates a CLI writing to stdout and stderr
func NewCLI(cfg *Config) *CLI {
	return NewCLIWithOutput(cfg, os.Stdout, os.Stderr)
}

// NewCLIWithOutput creates a CLI with custom output writers
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := &CLI{
		config:   cfg,
		output:   output,
		errorOut: errorOut,
		console:  logger.NewConsoleLogger(output, errorOut),
		logger:   logger.Discard(),
	}
	c.setupCommands()
	return c
}

// SetDependencies overrides how engine dependencies are created
func (c *CLI) SetDependencies(fn DependencyFunc) {
	c.deps = fn
}

// SetLookup overrides how doctor resolves tool names
func (c *CLI) SetLookup(fn engine.LookupFunc) {
	c.lookup = fn
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with ctx. Errors are printed before being
// returned.
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		c.console.Error(err.Error())
	}
	return err
}

// Execute runs the CLI against os.Args
func Execute(version string) error {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).Execute(os.Args[1:])
}

// ExitCode maps a command error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "appbuilder",
		Short: "Rebuild, re-sign and install modified Android packages",
		Long: `appbuilder packs compiled smali and extra files into a copy of an existing
APK, signs the result and optionally installs it on a device or emulator.

Options can be given as flags, APPBUILDER_* environment variables or in an
appbuilder.yaml file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initializeConfig,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	c.rootCmd.SetOut(c.output)
	c.rootCmd.SetErr(c.errorOut)

	flags := c.rootCmd.PersistentFlags()
	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: ./appbuilder.yaml)")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", c.config.Verbosity, "log level (debug, info, warn, error)")
	flags.StringVar(&c.config.LogFile, "log-file", "", "also write logs to this file")

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("appbuilder v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newBuildCmd())
	c.rootCmd.AddCommand(c.newPlanCmd())
	c.rootCmd.AddCommand(c.newWatchCmd())
	c.rootCmd.AddCommand(c.newDoctorCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper = config.NewViper(c.config.ConfigFile)
	if err := bindFlags(c.viper, cmd.Flags(), rootBindings); err != nil {
		return err
	}
	if err := bindFlags(c.viper, cmd.Flags(), buildBindings); err != nil {
		return err
	}
	if cmd.Annotations[annotationSkipConfig] == "" {
		if err := config.ReadConfigFile(c.viper, c.config.ConfigFile != ""); err != nil {
			return err
		}
	}

	level := c.viper.GetString("verbosity")
	if logFile := c.viper.GetString("log_file"); logFile != "" {
		c.logger = logger.CreateLogger(logFile, level)
	} else {
		c.logger = logger.CreateLoggerWithOutput(level, c.errorOut)
	}

	if used := c.viper.ConfigFileUsed(); used != "" {
		c.logger.Debug("Using config file", logger.WithField("file", used))
	}
	return nil
}

func (c *CLI) dependencies(cfg *types.BuildConfig) engine.Dependencies {
	if c.deps != nil {
		return c.deps(cfg)
	}
	deps := engine.NewDependencyFactory(c.logger, cfg).CreateDefaults()
	deps.Output = c.output
	return deps
}
