package cleaning

import (
	"math"
	"sort"

	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"

	"github.com/montanaflynn/stats"
)

// Inspect summarizes shape, kinds, missing counts and numeric distributions
func (c *Cleaner) Inspect(ds *dataset.Dataset) quality.Summary {
	summary := quality.Summary{Rows: ds.Len(), Columns: ds.Width()}

	for _, field := range ds.Schema() {
		col, _ := ds.Column(field.Name)
		cs := quality.ColumnSummary{
			Name:    field.Name,
			Kind:    field.Kind,
			Missing: col.MissingCount(),
			Count:   col.Len() - col.MissingCount(),
			Mean:    math.NaN(),
			Std:     math.NaN(),
			Min:     math.NaN(),
			Q25:     math.NaN(),
			Median:  math.NaN(),
			Q75:     math.NaN(),
			Max:     math.NaN(),
		}

		switch field.Kind {
		case dataset.Categorical:
			levels, _ := ds.Levels(field.Name)
			cs.Levels = len(levels)
		case dataset.Numeric:
			values := col.Present()
			if len(values) > 0 {
				sort.Float64s(values)
				cs.Mean, _ = stats.Mean(values)
				cs.Min, _ = stats.Min(values)
				cs.Max, _ = stats.Max(values)
				if len(values) > 1 {
					cs.Std, _ = stats.StandardDeviationSample(values)
				}
				cs.Q25 = Quantile(values, 0.25)
				cs.Median = Quantile(values, 0.5)
				cs.Q75 = Quantile(values, 0.75)
			}
		}
		summary.Fields = append(summary.Fields, cs)
	}

	c.logger.Info("Data overview: %d rows, %d columns", summary.Rows, summary.Columns)
	for _, cs := range summary.Fields {
		c.logger.Debug("  %-20s %-12s missing=%d", cs.Name, cs.Kind, cs.Missing)
	}
	return summary
}
