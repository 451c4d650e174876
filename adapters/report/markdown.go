package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cortexstat/domain/quality"
	"cortexstat/domain/run"
	"cortexstat/internal"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Document writes the run report as report.md and report.html under Dir
type Document struct {
	Dir    string
	logger *internal.Logger

	overview *quality.Summary
}

// NewDocument creates a document reporter writing under dir
func NewDocument(dir string, logger *internal.Logger) *Document {
	return &Document{Dir: dir, logger: logger}
}

// Overview keeps the summary for the report's data section
func (d *Document) Overview(ctx context.Context, s quality.Summary) error {
	d.overview = &s
	return ctx.Err()
}

// Report renders and writes both documents
func (d *Document) Report(ctx context.Context, r *run.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	md := d.Markdown(r)
	mdPath := filepath.Join(d.Dir, "report.md")
	if err := os.WriteFile(mdPath, md, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	htmlPath := filepath.Join(d.Dir, "report.html")
	if err := os.WriteFile(htmlPath, ToHTML(md, "Cortex protein expression report"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", htmlPath, err)
	}

	d.logger.Info("Report written to %s and %s", mdPath, htmlPath)
	return nil
}

// ToHTML renders Markdown as a complete HTML page
func ToHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

// Markdown builds the Markdown text of the report
func (d *Document) Markdown(r *run.Report) []byte {
	var b bytes.Buffer
	b.WriteString("# Cortex protein expression report\n\n")

	if r.Manifest != nil {
		m := r.Manifest
		fmt.Fprintf(&b, "- Run: `%s`\n", m.RunID)
		fmt.Fprintf(&b, "- Input: `%s` (sha256 `%s`)\n", m.Input, m.InputHash.Short())
		fmt.Fprintf(&b, "- Missing threshold: %g, outlier factor: %g, alpha: %g\n", m.MissingThreshold, m.OutlierFactor, m.Alpha)
		fmt.Fprintf(&b, "- Started: %s\n", m.CreatedAt)
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt)
	}
	b.WriteString("\n")

	overview := r.Overview
	if d.overview != nil && overview.Rows == 0 {
		overview = *d.overview
	}
	if overview.Columns > 0 {
		b.WriteString("## Data overview\n\n")
		fmt.Fprintf(&b, "%d rows, %d columns.\n\n", overview.Rows, overview.Columns)
		rows := make([][]string, 0, len(overview.Fields))
		for _, f := range overview.Fields {
			if f.Missing == 0 {
				continue
			}
			rows = append(rows, []string{f.Name, f.Kind.String(), strconv.Itoa(f.Missing)})
		}
		if len(rows) > 0 {
			writeTable(&b, []string{"Column", "Kind", "Missing"}, rows)
		}
	}

	writeCleaning(&b, r.Cleaning, r.CleanedAt)

	alpha := r.Alpha()
	for _, q := range r.Questions {
		fmt.Fprintf(&b, "## %s: %s\n\n", q.Question.ID, q.Question.Title)
		fmt.Fprintf(&b, "`%s ~ %s`, %d observations.\n\n", q.Question.Dependent, strings.Join(q.Question.Factors, " * "), q.SubsetSize)
		if len(q.Normality) > 0 {
			b.WriteString("### Normality (Shapiro-Wilk)\n\n")
			writeTable(&b, normalityHeader, normalityRows(q))
		}
		if q.Homogeneity.Center != "" {
			b.WriteString("### Homogeneity of variance\n\n")
			b.WriteString(homogeneityLine(q.Homogeneity) + "\n\n")
		}
		if !q.Failed() {
			fmt.Fprintf(&b, "### ANOVA (%s covariance)\n\n", q.Result.Covariance)
			writeTable(&b, anovaHeader, anovaRows(q.Result))
		}
		if q.PlotPath != "" {
			fmt.Fprintf(&b, "![%s](%s)\n\n", q.Question.Title, q.PlotPath)
		}
		fmt.Fprintf(&b, "**%s**\n\n", q.Conclusion(alpha))
	}
	return b.Bytes()
}

func writeCleaning(b *bytes.Buffer, q quality.Report, savedAt string) {
	b.WriteString("## Cleaning\n\n")
	fmt.Fprintf(b, "Rows in: %d, rows out: %d.\n\n", q.RowsIn, q.RowsOut)
	if len(q.DroppedColumns) > 0 {
		fmt.Fprintf(b, "Dropped %d sparse columns: %s.\n\n", len(q.DroppedColumns), strings.Join(q.DroppedColumns, ", "))
	}
	if q.Imputation.RemainingMissing() > 0 {
		fmt.Fprintf(b, "%d values could not be imputed.\n\n", q.Imputation.RemainingMissing())
	}
	if len(q.Outliers) > 0 {
		rows := make([][]string, 0, len(q.Outliers))
		for _, set := range q.Outliers {
			rows = append(rows, []string{set.Column, num(set.Lower), num(set.Upper), strconv.Itoa(set.Count())})
		}
		writeTable(b, []string{"Column", "Lower", "Upper", "Outliers"}, rows)
		fmt.Fprintf(b, "%d rows removed as outliers.\n\n", q.OutliersRemoved())
	}
	if q.Balance.Unlabeled > 0 {
		fmt.Fprintf(b, "%d rows without a group label are not counted.\n\n", q.Balance.Unlabeled)
	}
	if q.Balance.Warning != "" {
		fmt.Fprintf(b, "> Warning: %s\n\n", q.Balance.Warning)
	}
	if savedAt != "" {
		fmt.Fprintf(b, "Cleaned data saved to `%s`.\n\n", savedAt)
	}
}

func writeTable(b *bytes.Buffer, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}
