package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/appbuilder/appbuilder/internal/engine"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools can be found",
		Long:  `Resolve smali, zip, zipalign, apksigner and adb (or their configured replacements) on PATH.`,
		Args:  cobra.NoArgs,
		RunE:  c.runDoctor,
	}
}

func (c *CLI) runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadBuildConfig(cmd)
	if err != nil {
		return err
	}

	statuses, checkErr := engine.CheckTools(cmd.Context(), cfg.Tools, c.logger, c.lookup)

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tSTATUS\tPATH")
	for _, s := range statuses {
		if s.Name == "" {
			continue
		}
		status := color.GreenString("ok")
		if !s.Found() {
			status = color.RedString("missing")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, status, s.Path)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return checkErr
}
