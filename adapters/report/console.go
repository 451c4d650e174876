// Package report presents run results on the console and as Markdown and
// HTML documents.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"cortexstat/domain/quality"
	"cortexstat/domain/run"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Console prints tables and conclusions to a terminal
type Console struct {
	out io.Writer
}

// NewConsole creates a console reporter; a nil writer means stdout
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) heading(format string, args ...interface{}) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\n=== "+format+" ===\n", args...)
}

func (c *Console) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

// Overview prints the data overview
func (c *Console) Overview(ctx context.Context, s quality.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.heading("Inspecting Data")
	fmt.Fprintf(c.out, "Shape: %d rows x %d columns\n", s.Rows, s.Columns)

	rows := make([][]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		rows = append(rows, []string{
			f.Name, f.Kind.String(), strconv.Itoa(f.Missing), strconv.Itoa(f.Count),
			num(f.Mean), num(f.Std), num(f.Min), num(f.Median), num(f.Max),
		})
	}
	c.table([]string{"Column", "Kind", "Missing", "Count", "Mean", "Std", "Min", "50%", "Max"}, rows)
	return nil
}

// Report prints the cleaning summary, every question's tables and the
// final conclusions
func (c *Console) Report(ctx context.Context, r *run.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.Cleaning(r.Cleaning)

	for _, q := range r.Questions {
		c.heading("%s: %s", q.Question.ID, q.Question.Title)
		fmt.Fprintf(c.out, "%s ~ %s (n = %d)\n", q.Question.Dependent, strings.Join(q.Question.Factors, " x "), q.SubsetSize)
		if len(q.Normality) > 0 {
			c.table(normalityHeader, normalityRows(q))
		}
		if q.Homogeneity.Center != "" {
			fmt.Fprintln(c.out, homogeneityLine(q.Homogeneity))
		}
		if q.Failed() {
			color.New(color.FgRed).Fprintf(c.out, "Test failed: %v\n", q.Err)
			continue
		}
		c.table(anovaHeader, anovaRows(q.Result))
		if q.PlotPath != "" {
			fmt.Fprintf(c.out, "Figure: %s\n", q.PlotPath)
		}
	}

	c.heading("Final Conclusion")
	alpha := r.Alpha()
	for _, q := range r.Questions {
		line := q.Conclusion(alpha)
		eff, ok := q.KeyEffect()
		switch {
		case q.Failed() || !ok:
			color.New(color.FgRed).Fprintln(c.out, line)
		case eff.Significant(alpha):
			color.New(color.FgGreen).Fprintln(c.out, line)
		default:
			color.New(color.FgYellow).Fprintln(c.out, line)
		}
	}
	if r.Manifest != nil {
		fmt.Fprintf(c.out, "\nRun %s finished in %s\n", r.Manifest.RunID, r.Duration().Round(time.Millisecond))
	}
	return nil
}

// Cleaning prints what the cleaning stage dropped, imputed and removed
func (c *Console) Cleaning(q quality.Report) {
	c.heading("Cleaning")
	fmt.Fprintf(c.out, "Rows: %d -> %d\n", q.RowsIn, q.RowsOut)
	fmt.Fprintf(c.out, "Dropped columns (%d): %s\n", len(q.DroppedColumns), strings.Join(q.DroppedColumns, ", "))

	rows := make([][]string, 0, len(q.Imputation.Columns))
	for _, col := range q.Imputation.Columns {
		rows = append(rows, []string{col.Column, strconv.Itoa(col.Imputed), strconv.Itoa(col.Remaining)})
	}
	if len(rows) > 0 {
		c.table([]string{"Column", "Imputed", "Still missing"}, rows)
	}
	for _, gap := range q.Imputation.Gaps {
		color.New(color.FgYellow).Fprintf(c.out, "No %s values to average in group %s (%d left missing)\n", gap.Column, gap.Group, gap.Missing)
	}

	rows = rows[:0]
	for _, set := range q.Outliers {
		rows = append(rows, []string{set.Column, num(set.Lower), num(set.Upper), strconv.Itoa(set.Count())})
	}
	if len(rows) > 0 {
		c.table([]string{"Column", "Lower", "Upper", "Outliers"}, rows)
	}

	rows = rows[:0]
	for _, gc := range q.Balance.Counts {
		rows = append(rows, []string{groupLabel(gc.Key), strconv.Itoa(gc.Count)})
	}
	if len(rows) > 0 {
		c.table([]string{strings.Join(q.Balance.GroupColumns, " / "), "Count"}, rows)
	}
	if q.Balance.Unlabeled > 0 {
		fmt.Fprintf(c.out, "%d rows without a group label are not counted\n", q.Balance.Unlabeled)
	}
	if !q.Balance.Balanced() {
		color.New(color.FgYellow).Fprintf(c.out, "Warning: %s\n", q.Balance.Warning)
	}
}
