// Package quality holds the data-quality findings of a cleaning run.
package quality

import (
	"cortexstat/domain/dataset"
)

// Report collects what one cleaning run did. It is built once per run and
// handed to logging and reporting; nothing retains it.
type Report struct {
	RowsIn         int              `json:"rows_in"`
	RowsOut        int              `json:"rows_out"`
	DroppedColumns []string         `json:"dropped_columns"`
	Imputation     ImputationReport `json:"imputation"`
	Outliers       []OutlierSet     `json:"outliers"`
	Balance        BalanceReport    `json:"balance"`
	Projected      []string         `json:"projected,omitempty"`
}

// OutliersRemoved returns the total number of records removed as outliers
func (r *Report) OutliersRemoved() int {
	seen := make(map[dataset.RecordID]struct{})
	for _, set := range r.Outliers {
		for _, id := range set.Records {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// ImputationReport counts filled and still-missing values per target column
type ImputationReport struct {
	Columns []ColumnImputation `json:"columns"`
	Gaps    []ImputationGap    `json:"gaps,omitempty"`
}

// ColumnImputation is the outcome for one target column
type ColumnImputation struct {
	Column    string `json:"column"`
	Imputed   int    `json:"imputed"`
	Remaining int    `json:"remaining"`
	Skipped   bool   `json:"skipped"` // column had no missing value
}

// ImputationGap is a group that had no valid value to average for a column;
// its missing cells stay missing.
type ImputationGap struct {
	Column  string `json:"column"`
	Group   string `json:"group"`
	Missing int    `json:"missing"`
}

// RemainingMissing returns the number of values still missing after
// imputation, summed over all target columns. Callers check it before the
// statistical stage.
func (r ImputationReport) RemainingMissing() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Remaining
	}
	return n
}

// Column returns the outcome for one column
func (r ImputationReport) Column(name string) (ColumnImputation, bool) {
	for _, c := range r.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnImputation{}, false
}

// OutlierSet holds the IQR bounds of a column and the records outside them
type OutlierSet struct {
	Column  string             `json:"column"`
	Q1      float64            `json:"q1"`
	Q3      float64            `json:"q3"`
	IQR     float64            `json:"iqr"`
	Lower   float64            `json:"lower"`
	Upper   float64            `json:"upper"`
	Factor  float64            `json:"factor"`
	Records []dataset.RecordID `json:"records"`
}

// Count returns the number of flagged records
func (s OutlierSet) Count() int { return len(s.Records) }

// BalanceReport lists observed group sizes and absent expected combinations
type BalanceReport struct {
	GroupColumns []string     `json:"group_columns"`
	Counts       []GroupCount `json:"counts"`
	Missing      [][]string   `json:"missing"`
	Unlabeled    int          `json:"unlabeled,omitempty"` // rows with a missing group label, not counted
	Warning      string       `json:"warning,omitempty"`
}

// GroupCount is the number of rows observed for one combination
type GroupCount struct {
	Key   []string `json:"key"`
	Count int      `json:"count"`
}

// Balanced reports whether every expected combination was observed
func (b BalanceReport) Balanced() bool { return len(b.Missing) == 0 }

// Count returns the observed count for a combination, 0 when absent
func (b BalanceReport) Count(key ...string) int {
	for _, c := range b.Counts {
		if dataset.GroupKey(c.Key).Equal(key) {
			return c.Count
		}
	}
	return 0
}

// Summary is the data overview printed before cleaning
type Summary struct {
	Rows    int             `json:"rows"`
	Columns int             `json:"columns"`
	Fields  []ColumnSummary `json:"fields"`
}

// ColumnSummary describes one column. Numeric statistics are NaN for
// categorical columns and for numeric columns without values.
type ColumnSummary struct {
	Name    string       `json:"name"`
	Kind    dataset.Kind `json:"kind"`
	Missing int          `json:"missing"`
	Count   int          `json:"count"`
	Levels  int          `json:"levels,omitempty"`
	Mean    float64      `json:"mean"`
	Std     float64      `json:"std"`
	Min     float64      `json:"min"`
	Q25     float64      `json:"q25"`
	Median  float64      `json:"median"`
	Q75     float64      `json:"q75"`
	Max     float64      `json:"max"`
}
