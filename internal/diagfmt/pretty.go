package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"propweave/internal/diag"
	"propweave/internal/source"
)

const sevColumn = 7

type palette struct {
	err, warn, info, code, loc, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Bold),
		loc:  color.New(color.Faint),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes the bag for a terminal:
//
//	ERROR   WVE1005 fixture.toml:12:1
//	        App.Person::set_Age: woven body is invalid, restored
//
// followed by a summary line. Items are written in bag order; sort first.
func Pretty(w io.Writer, bag *diag.Bag, docs *source.DocumentSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	indent := strings.Repeat(" ", sevColumn+1)
	for _, d := range bag.Items() {
		if d.Severity == diag.SevInfo && !opts.Verbose {
			continue
		}
		sev := runewidth.FillRight(d.Severity.String(), sevColumn)
		head := p.severity(d.Severity).Sprint(sev) + " " + p.code.Sprint(d.Code.ID())
		if loc := location(d.Primary, docs, opts.PathMode); loc != "" {
			head += " " + p.loc.Sprint(loc)
		}
		if _, err := fmt.Fprintln(w, head); err != nil {
			return err
		}
		if err := writeIndented(w, indent, d.Message, opts.Width); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			msg := p.note.Sprint("note: ") + n.Msg
			if loc := location(n.Span, docs, opts.PathMode); loc != "" {
				msg += " (" + loc + ")"
			}
			if err := writeIndented(w, indent, msg, opts.Width); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, Summary(bag))
	return err
}

func writeIndented(w io.Writer, indent, text string, width int) error {
	if width > len(indent)+10 {
		text = runewidth.Wrap(text, width-len(indent))
	}
	for _, line := range strings.Split(text, "\n") {
		if _, err := fmt.Fprintln(w, indent+line); err != nil {
			return err
		}
	}
	return nil
}

// Summary counts the bag by severity.
func Summary(bag *diag.Bag) string {
	return fmt.Sprintf("%s, %s, %s",
		plural(bag.CountExact(diag.SevError), "error"),
		plural(bag.CountExact(diag.SevWarning), "warning"),
		plural(bag.CountExact(diag.SevInfo), "info"))
}

func plural(n int, word string) string {
	if n == 1 || word == "info" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Short writes one line per diagnostic: "path:line:col: SEV CODE: message".
func Short(w io.Writer, bag *diag.Bag, docs *source.DocumentSet, mode PathMode) error {
	for _, d := range bag.Items() {
		loc := location(d.Primary, docs, mode)
		if loc == "" {
			loc = "-"
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n", loc, d.Severity, d.Code.ID(), d.Message); err != nil {
			return err
		}
	}
	return nil
}
