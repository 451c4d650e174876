// Package cleaning implements the structural cleaning steps applied to the
// raw expression table before any hypothesis test: sparse-column pruning,
// group-mean imputation, IQR outlier rejection and the group balance check.
package cleaning

import (
	"fmt"
	"math"
	"strings"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"
	"cortexstat/internal"

	"github.com/montanaflynn/stats"
)

// Defaults used by the reference study
const (
	DefaultMissingThreshold = 0.5
	DefaultOutlierFactor    = 3.0
)

// Cleaner runs cleaning operations over datasets. It holds no state besides
// its logger; every operation returns a new dataset.
type Cleaner struct {
	logger *internal.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to DefaultLogger.
func NewCleaner(logger *internal.Logger) *Cleaner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Cleaner{logger: logger}
}

// DropSparseColumns drops every column whose missing count strictly exceeds
// threshold*rows. With zero rows nothing is dropped.
func (c *Cleaner) DropSparseColumns(ds *dataset.Dataset, threshold float64) (*dataset.Dataset, []string, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, nil, core.NewInvalidArgumentError("threshold", fmt.Sprintf("%v outside [0, 1]", threshold))
	}

	limit := threshold * float64(ds.Len())
	var drop []string
	for _, name := range ds.Names() {
		col, _ := ds.Column(name)
		if float64(col.MissingCount()) > limit {
			drop = append(drop, name)
		}
	}

	c.logger.Info("Columns with more than %.0f%% missing values (to be dropped): %v", threshold*100, drop)
	if len(drop) == 0 {
		return ds, nil, nil
	}

	out, err := ds.Drop(drop...)
	if err != nil {
		return nil, nil, err
	}
	return out, drop, nil
}

// ImputeByGroup fills missing values of each target column with the mean of
// the non-missing values of the same group. Columns without missing values
// are left alone. A group with no valid value keeps its missing cells and is
// reported as an ImputationGap. Rows with a missing group label belong to no
// group and are never imputed.
//
// Targets are processed one after the other, each against the table as
// already imputed for the previous targets.
func (c *Cleaner) ImputeByGroup(ds *dataset.Dataset, targets, groupBy []string) (*dataset.Dataset, quality.ImputationReport, error) {
	var report quality.ImputationReport

	if err := ds.Require(groupBy...); err != nil {
		return nil, report, err
	}
	for _, name := range targets {
		if _, err := ds.Numeric(name); err != nil {
			return nil, report, err
		}
	}

	partition, err := ds.Partition(groupBy...)
	if err != nil {
		return nil, report, err
	}

	current := ds
	for _, name := range targets {
		col, _ := current.Numeric(name)
		missing := col.MissingCount()
		if missing == 0 {
			report.Columns = append(report.Columns, quality.ColumnImputation{Column: name, Skipped: true})
			continue
		}

		fills := make(map[int]float64)
		for _, g := range partition.Groups {
			holes := missingRows(col, g.Rows)
			if len(holes) == 0 {
				continue
			}
			if !g.Key.Labeled() {
				c.logger.Debug("%d %s values without a %s label stay missing", len(holes), name, strings.Join(groupBy, "/"))
				continue
			}
			present := col.PresentAt(g.Rows)
			if len(present) == 0 {
				report.Gaps = append(report.Gaps, quality.ImputationGap{Column: name, Group: g.Key.String(), Missing: len(holes)})
				c.logger.Warn("No valid %s values in group %s; %d values stay missing", name, g.Key, len(holes))
				continue
			}
			mean, err := stats.Mean(present)
			if err != nil {
				return nil, report, fmt.Errorf("mean of %s in group %s: %w", name, g.Key, err)
			}
			for _, r := range holes {
				fills[r] = mean
			}
		}

		current, err = current.WithColumn(col.WithFilled(fills))
		if err != nil {
			return nil, report, err
		}
		report.Columns = append(report.Columns, quality.ColumnImputation{
			Column:    name,
			Imputed:   len(fills),
			Remaining: missing - len(fills),
		})
		c.logger.Info("Imputed %d missing %s values by %v group mean (%d remain)", len(fills), name, groupBy, missing-len(fills))
	}

	return current, report, nil
}

func missingRows(col *dataset.Column, rows []int) []int {
	var out []int
	for _, r := range rows {
		if col.IsMissing(r) {
			out = append(out, r)
		}
	}
	return out
}
