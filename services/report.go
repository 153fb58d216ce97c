package services

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"ipo-checker/models"
)

const barWidth = 30

// PrintResults writes every company group with its allotment split followed
// by its entries. raw prints the stored markup verbatim instead of the
// extracted table text.
func PrintResults(w io.Writer, set models.ResultSet, raw bool) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d\n", Count(set))

	if len(set) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No results yet")
		return
	}

	for _, g := range set {
		t := TallyGroup(g)
		pct := t.AllottedPercent()

		fmt.Fprintln(w)
		fmt.Fprintln(w, g.Company)
		fmt.Fprintln(w, Bar(t, barWidth))

		legend := table.NewWriter()
		legend.SetStyle(table.StyleRounded)
		legend.AppendRow(table.Row{"Allotted", fmt.Sprintf("%d (%d%%)", t.Allotted, int(math.Round(pct)))})
		legend.AppendRow(table.Row{"Not Allotted", fmt.Sprintf("%d (%d%%)", t.NotAllotted, int(math.Round(100-pct)))})
		fmt.Fprintln(w, legend.Render())

		if raw {
			for _, r := range g.Results {
				fmt.Fprintln(w, r.HTML)
			}
			continue
		}

		fmt.Fprintln(w, renderEntries(g.Results))
	}
}

func renderEntries(results []models.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Application ID", "Shares", "Details"})

	for i, r := range results {
		tw.AppendRow(table.Row{
			i + 1,
			r.ID,
			strconv.Itoa(AllottedShares(r.HTML)),
			strings.Join(ResultText(r.HTML), "\n"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 60},
	})
	return tw.Render()
}
