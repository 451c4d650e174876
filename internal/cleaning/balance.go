package cleaning

import (
	"fmt"
	"strings"

	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"
)

// Design of the reference study
var (
	DefaultGroupColumns   = []string{"Genotype", "Treatment"}
	DefaultExpectedLevels = [][]string{
		{"Control", "Ts65Dn"},
		{"Saline", "Memantine"},
	}
)

// CheckGroupBalance counts rows per observed combination of groupCols and
// lists the combinations of expected levels that were not observed. It is a
// diagnostic: it never fails and never changes the data. expected holds the
// levels of each grouping column, in groupCols order. Rows with a missing
// group label belong to no group; they are tallied in Unlabeled only.
func (c *Cleaner) CheckGroupBalance(ds *dataset.Dataset, groupCols []string, expected [][]string) quality.BalanceReport {
	report := quality.BalanceReport{GroupColumns: append([]string(nil), groupCols...)}

	partition, err := ds.Partition(groupCols...)
	if err != nil {
		report.Warning = fmt.Sprintf("cannot group by %v: %v", groupCols, err)
		report.Missing = combinations(expected)
		c.logger.Warn("Group balance: %s", report.Warning)
		return report
	}

	for _, g := range partition.Groups {
		if !g.Key.Labeled() {
			report.Unlabeled += g.Size()
			continue
		}
		report.Counts = append(report.Counts, quality.GroupCount{Key: append([]string(nil), g.Key...), Count: g.Size()})
	}
	for _, combo := range combinations(expected) {
		if _, ok := partition.Lookup(combo...); !ok {
			report.Missing = append(report.Missing, combo)
		}
	}

	c.logger.Info("Counts per group (%s):", strings.Join(groupCols, " and "))
	for _, gc := range report.Counts {
		c.logger.Info("  %-30s %d", strings.Join(gc.Key, " / "), gc.Count)
	}
	if report.Unlabeled > 0 {
		c.logger.Warn("%d rows have a missing %s label and are not counted", report.Unlabeled, strings.Join(groupCols, " or "))
	}
	if len(report.Missing) > 0 {
		report.Warning = fmt.Sprintf("missing group combinations: %v", report.Missing)
		c.logger.Warn("Warning: Missing group combinations: %v", report.Missing)
	} else {
		c.logger.Info("All expected group combinations are present.")
	}
	return report
}

// combinations returns the cartesian product of levels, first column
// varying slowest.
func combinations(levels [][]string) [][]string {
	if len(levels) == 0 {
		return nil
	}
	out := [][]string{{}}
	for _, col := range levels {
		next := make([][]string, 0, len(out)*len(col))
		for _, prefix := range out {
			for _, level := range col {
				combo := append(append([]string(nil), prefix...), level)
				next = append(next, combo)
			}
		}
		out = next
	}
	return out
}
