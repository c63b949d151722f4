package main

import (
	"fmt"
	"io"
	"time"

	"propweave/internal/observ"
	"propweave/internal/pipeline"
)

func printStageTimings(out io.Writer, name string, timings pipeline.Timings) error {
	if out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(out, "%s:", name); err != nil {
		return err
	}
	for _, stage := range []pipeline.Stage{pipeline.StageLoad, pipeline.StageWeave} {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, " %s %.1f ms", stage, toMillis(timings.Duration(stage))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}

func printPhaseTimings(out io.Writer, report observ.Report) error {
	if out == nil || len(report.Phases) == 0 {
		return nil
	}
	_, err := io.WriteString(out, report.Summary())
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
