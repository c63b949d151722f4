package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"propweave/internal/fixture"
	"propweave/internal/typegraph"
	"propweave/internal/weaving"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <fixture>",
		Short: "Print the types a weave would visit, base types first",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	set, err := fixture.Load(args[0], fixture.Options{CoreScope: cfg.Conventions.CoreScope})
	if err != nil {
		return err
	}
	g, err := weaving.Plan(cmd.Context(), set.Target(), set.References(), cfg)
	if err != nil {
		return err
	}
	return printPlan(cmd.OutOrStdout(), g)
}

// printPlan writes one line per eligible type followed by its members:
//
//	App.Employee      : App.Person
//	  property Title    notify
func printPlan(out io.Writer, g *typegraph.Graph) error {
	nodes := g.Nodes()
	width := 0
	for _, n := range nodes {
		width = max(width, runewidth.StringWidth(n.Type.FullName()))
	}
	for _, n := range nodes {
		line := runewidth.FillRight(n.Type.FullName(), width)
		if base := g.Base(n); base != nil {
			line += " : " + base.Type.FullName()
		} else if n.Type.BaseType != nil {
			line += " : " + n.Type.BaseType.FullName()
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
		for _, m := range n.Members {
			if _, err := fmt.Fprintf(out, "  %-8s %s %s\n", m.Kind, runewidth.FillRight(m.Name(), 16), describeMember(m)); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeMember(m *typegraph.Member) string {
	var parts []string
	if m.Notify {
		parts = append(parts, "notify")
	}
	for _, v := range m.Validations {
		target := "value"
		if v.Param != nil {
			target = v.Param.Name
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", v.Check, target))
	}
	if m.HasHelperCalls {
		parts = append(parts, "calls")
	}
	return strings.Join(parts, " ")
}
