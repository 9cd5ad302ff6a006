package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agentstation/configurator/pkg/diff"
	"github.com/agentstation/configurator/pkg/report"
)

// Render writes value with the formatter for format. Tabular formats render
// table; JSON and YAML serialize value itself.
func Render(w io.Writer, format Format, value any, table Data) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, value)
	default:
		return NewFormatter(format).Format(w, table)
	}
}

// ReportData tabulates a reconciliation report, one row per outcome.
func ReportData(r *report.Report) Data {
	data := Data{
		Title:           fmt.Sprintf("Run %s (%s)", r.RunID, r.Duration().Round(time.Millisecond)),
		Headers:         []string{"Kind", "Name", "Status", "Reason"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft},
		Footer:          r.Summary(),
	}
	for _, o := range r.Sorted() {
		data.Rows = append(data.Rows, []string{string(o.Kind), o.Name, string(o.Status), o.Reason})
	}
	return data
}

// CountsData tabulates the number of outcomes per status.
func CountsData(r *report.Report) Data {
	counts := r.Counts()
	data := Data{
		Headers:         []string{"Status", "Count"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, s := range report.Statuses {
		data.Rows = append(data.Rows, []string{string(s), strconv.Itoa(counts[s])})
	}
	return data
}

// DiffData tabulates a diff, one row per entry.
func DiffData(res *diff.Result) Data {
	data := Data{
		Headers: []string{"Section", "Name", "Change", "Detail"},
		Footer:  res.String(),
	}
	for _, e := range res.Entries {
		data.Rows = append(data.Rows, []string{e.Section, e.Name, string(e.Change), e.Detail})
	}
	return data
}
