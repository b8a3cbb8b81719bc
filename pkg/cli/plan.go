package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/appbuilder/appbuilder/internal/engine"
	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the commands a build would run",
		Long:  `Validate the configuration and print the planned operations without staging or running anything.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadBuildConfig(cmd)
			if err != nil {
				return err
			}
			entries, err := engine.New(cfg, c.logger, c.dependencies(cfg)).Plan(cmd.Context())
			if err != nil {
				return err
			}
			return writePlan(c.output, format, entries)
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().StringVar(&format, "output", "text", "output format (text, yaml, json)")
	return cmd
}

func writePlan(w io.Writer, format string, entries []queue.PlanEntry) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q: %w", format, types.ErrConfig)
	}

	step := 0
	for _, e := range entries {
		switch e.Kind {
		case queue.KindLabel:
			fmt.Fprintf(w, "%s\n", color.CyanString("# "+e.Label))
		case queue.KindCommand:
			step++
			line := types.Command{Program: e.Program, Args: e.Args}.String()
			if e.Stdin {
				line += " <stdin>"
			}
			if e.Dir != "" {
				line = fmt.Sprintf("(cd %s) %s", e.Dir, line)
			}
			fmt.Fprintf(w, "%3d  %s\n", step, line)
		case queue.KindAction:
			step++
			fmt.Fprintf(w, "%3d  %s\n", step, color.YellowString(e.Detail))
		}
	}
	if step == 0 {
		fmt.Fprintln(w, "nothing to do")
	}
	return nil
}
