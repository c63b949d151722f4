package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"propweave/internal/diag"
	"propweave/internal/diagfmt"
	"propweave/internal/il"
	"propweave/internal/observ"
	"propweave/internal/pipeline"
	"propweave/internal/prof"
	"propweave/internal/report"
	"propweave/internal/version"
)

type weaveOptions struct {
	format  string
	emitIL  bool
	report  string
	jobs    int
	ui      string
	timings bool
	verbose bool
	notes   bool
	cpuProf string
	memProf string
	stream  bool
	failOn  string
}

func newWeaveCmd() *cobra.Command {
	var opts weaveOptions
	cmd := &cobra.Command{
		Use:   "weave [flags] <fixture>...",
		Short: "Weave the modules described by fixtures and report what changed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeave(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "pretty", "diagnostics format (pretty|short|json)")
	f.BoolVar(&opts.emitIL, "emit-il", false, "print the bodies of the woven types")
	f.StringVar(&opts.report, "report", "", "write a run report (msgpack for .mp, JSON otherwise)")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "fixtures woven in parallel (0 = GOMAXPROCS)")
	f.StringVar(&opts.ui, "ui", "auto", "progress view (auto|on|off)")
	f.BoolVar(&opts.timings, "timings", false, "print stage and pass timings")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "include info diagnostics in pretty output")
	f.BoolVar(&opts.notes, "notes", true, "include diagnostic notes")
	f.BoolVar(&opts.stream, "stream", false, "print diagnostics to stderr as they are emitted")
	f.StringVar(&opts.failOn, "fail-on", "error", "lowest severity that fails the run (info|warning|error)")
	f.StringVar(&opts.cpuProf, "cpu-profile", "", "write a CPU profile of the run")
	f.StringVar(&opts.memProf, "mem-profile", "", "write a heap profile after the run")
	return cmd
}

func runWeave(cmd *cobra.Command, paths []string, opts weaveOptions) error {
	format := strings.ToLower(opts.format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", opts.format)
	}
	mode, err := readUIMode(opts.ui)
	if err != nil {
		return err
	}
	threshold, err := diag.ParseSeverity(opts.failOn)
	if err != nil {
		return fmt.Errorf("--fail-on: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	maxDiags, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	session, err := prof.Start(opts.cpuProf, opts.memProf)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}()

	popts := pipeline.Options{Config: cfg, Jobs: opts.jobs, MaxDiagnostics: maxDiags}
	if opts.stream {
		popts.Observe = newStreamLogger(cmd.ErrOrStderr())
	}
	var outcomes []pipeline.Outcome
	if format != "json" && shouldUseTUI(mode) {
		outcomes, err = runWeaveWithUI(cmd.Context(), "weaving", paths, popts)
	} else {
		outcomes, err = pipeline.Run(cmd.Context(), paths, popts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printDiagnostics(out, outcomes, format, opts); err != nil {
		return err
	}
	if opts.emitIL {
		for i := range outcomes {
			if err := emitIL(out, &outcomes[i]); err != nil {
				return err
			}
		}
	}
	if opts.timings {
		total := observ.Report{}
		for _, o := range outcomes {
			if err := printStageTimings(cmd.ErrOrStderr(), o.Path, o.Timings); err != nil {
				return err
			}
			if o.Result != nil {
				total.Merge(o.Result.Timings)
			}
		}
		if err := printPhaseTimings(cmd.ErrOrStderr(), total); err != nil {
			return err
		}
	}

	rep := report.New(version.String(), time.Now())
	for _, o := range outcomes {
		rep.Add(report.FromResult(o.Path, o.Result, o.Bag, o.Err))
	}
	if opts.report != "" {
		if err := report.WriteFile(opts.report, rep); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if !quiet && format != "json" {
			fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", opts.report)
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil || o.Bag.Count(threshold) > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed", failed, len(outcomes))
	}
	return nil
}

// fixtureDiagnostics is one element of the JSON output.
type fixtureDiagnostics struct {
	Fixture string `json:"fixture"`
	Aborted bool   `json:"aborted"`
	diagfmt.DiagnosticsOutput
}

func printDiagnostics(out io.Writer, outcomes []pipeline.Outcome, format string, opts weaveOptions) error {
	if format == "json" {
		payload := make([]fixtureDiagnostics, 0, len(outcomes))
		for _, o := range outcomes {
			o.Bag.Sort()
			payload = append(payload, fixtureDiagnostics{
				Fixture:           o.Path,
				Aborted:           o.Err != nil,
				DiagnosticsOutput: diagfmt.BuildDiagnosticsOutput(o.Bag, o.Docs, diagfmt.JSONOpts{IncludeNotes: opts.notes}),
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	colorOn := colorEnabled(out)
	for _, o := range outcomes {
		o.Bag.Sort()
		var err error
		switch format {
		case "short":
			err = diagfmt.Short(out, o.Bag, o.Docs, diagfmt.PathModeAuto)
		default:
			if len(outcomes) > 1 {
				if _, err := fmt.Fprintf(out, "== %s\n", o.Path); err != nil {
					return err
				}
			}
			err = diagfmt.Pretty(out, o.Bag, o.Docs, diagfmt.PrettyOpts{
				Color:     colorOn,
				PathMode:  diagfmt.PathModeAuto,
				Verbose:   opts.verbose,
				ShowNotes: opts.notes,
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// emitIL lists every method of the types the run visited.
func emitIL(out io.Writer, o *pipeline.Outcome) error {
	if o.Result == nil || o.Set == nil {
		return nil
	}
	mod := o.Set.Target()
	for _, name := range o.Result.Order {
		def := mod.FindType(name)
		if def == nil {
			continue
		}
		for _, m := range def.Methods {
			if m.Body == nil {
				continue
			}
			if _, err := fmt.Fprintf(out, "\n%s\n", m); err != nil {
				return err
			}
			if err := il.Dump(out, m.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// colorEnabled honours --color for files only; buffers never get escapes.
func colorEnabled(out io.Writer) bool {
	_, isFile := out.(*os.File)
	return isFile && !color.NoColor
}
