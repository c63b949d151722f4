package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"propweave/internal/pipeline"
	"propweave/internal/ui"
)

type weaveOutcome struct {
	outcomes []pipeline.Outcome
	err      error
}

// runWeaveWithUI runs the batch while a progress view consumes its events.
func runWeaveWithUI(ctx context.Context, title string, files []string, opts pipeline.Options) ([]pipeline.Outcome, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan weaveOutcome, 1)

	go func() {
		opts.Progress = pipeline.ChannelSink{Ch: events}
		outcomes, err := pipeline.Run(ctx, files, opts)
		outcomeCh <- weaveOutcome{outcomes: outcomes, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the pipeline from blocking on a view that is gone
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.outcomes, uiErr
	}
	return outcome.outcomes, outcome.err
}
