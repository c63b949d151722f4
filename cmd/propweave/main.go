package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"propweave/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "propweave",
		Short: "Post-compilation weaver for change notification and argument checks",
		Long: `propweave rewrites model types described by module fixtures: property
setters raise change notifications, annotated parameters get argument checks
and build-time references are removed.`,
		Version:       version.Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			on, err := readColorMode(mode)
			if err != nil {
				return err
			}
			color.NoColor = !on
			return nil
		},
	}

	root.AddCommand(newWeaveCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newVersionCmd())

	pf := root.PersistentFlags()
	pf.String("config", "", "path to weave.toml (default: search upwards from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics kept per fixture")
	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring)")
	pf.Int("trace-ring-size", 1024, "events kept in ring mode")
	return root
}

// main runs the root command; any returned error exits with status 1.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
