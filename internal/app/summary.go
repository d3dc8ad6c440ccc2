package app

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary renders the per type counts and the skipped versions of a changed run.
func Summary(res *Result, styled bool) string {
	if res == nil || res.Outcome != OutcomeChanged || res.Manifest == nil {
		return ""
	}

	var order []string
	counts := make(map[string]int)
	for _, v := range res.Manifest.Versions {
		if _, ok := counts[v.Type]; !ok {
			order = append(order, v.Type)
		}
		counts[v.Type]++
	}

	tw := newTable(styled)
	tw.AppendHeader(table.Row{"Type", "Versions"})
	for _, typ := range order {
		tw.AppendRow(table.Row{typ, counts[typ]})
	}
	tw.AppendFooter(table.Row{"Total", len(res.Manifest.Versions)})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteString("\n")

	if res.Report.Empty() {
		return b.String()
	}

	sw := newTable(styled)
	sw.SetTitle(fmt.Sprintf("Skipped %d versions", len(res.Report.Skipped)))
	sw.AppendHeader(table.Row{"ID", "URL", "Error"})
	for _, s := range res.Report.Skipped {
		sw.AppendRow(table.Row{s.ID, s.URL, s.Err.Error()})
	}

	b.WriteString(sw.Render())
	b.WriteString("\n")

	return b.String()
}

func newTable(styled bool) table.Writer {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	return tw
}
