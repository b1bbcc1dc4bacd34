package report

import (
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sensorguard/internal/model"
)

// Mode controls the console table format.
type Mode int

const (
	ASCII Mode = iota
	Markdown
)

func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "markdown") {
		return Markdown
	}
	return ASCII
}

// SummaryTable renders the run summary followed by the anomalous readings.
func SummaryTable(summary model.RunSummary, result model.AnomalyResult, mode Mode) string {
	overview := newTable(mode)
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRow(table.Row{"Source", summary.Source})
	overview.AppendRow(table.Row{"Threshold", FormatValue(summary.Threshold)})
	overview.AppendRow(table.Row{"Readings", summary.Total})
	overview.AppendRow(table.Row{"Skipped lines", summary.Skipped})
	overview.AppendRow(table.Row{"Anomalies", summary.Anomalies})
	overview.AppendRow(table.Row{"Report", summary.ReportPath})
	if summary.GraphPath != "" {
		overview.AppendRow(table.Row{"Graph", summary.GraphPath})
	}

	var b strings.Builder
	b.WriteString(render(overview, mode))
	b.WriteString("\n")
	if len(result.Anomalies) == 0 {
		return b.String()
	}

	list := newTable(mode)
	list.AppendHeader(table.Row{"#", "Index", "Value"})
	list.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for i, a := range result.Anomalies {
		list.AppendRow(table.Row{i + 1, a.Index, FormatValue(a.Value)})
	}
	list.AppendFooter(table.Row{"", "Total", result.Count})
	b.WriteString("\n")
	b.WriteString(render(list, mode))
	b.WriteString("\n")
	return b.String()
}

// HistoryTable renders stored runs, newest first as given.
func HistoryTable(runs []model.RunSummary, mode Mode) string {
	w := newTable(mode)
	w.AppendHeader(table.Row{"Started", "Source", "Threshold", "Readings", "Skipped", "Anomalies", "Duration"})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for _, r := range runs {
		w.AppendRow(table.Row{
			r.StartedAt.Local().Format(timestampLayout),
			r.Source,
			FormatValue(r.Threshold),
			r.Total,
			r.Skipped,
			r.Anomalies,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		})
	}
	w.AppendFooter(table.Row{"", "Runs", "", "", "", len(runs), ""})
	return render(w, mode) + "\n"
}

func newTable(mode Mode) table.Writer {
	w := table.NewWriter()
	if mode == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, mode Mode) string {
	if mode == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}
