package cleaning

import (
	"fmt"
	"math"
	"sort"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"
)

// Quantile returns the p-quantile of an ascending slice by linear
// interpolation between closest ranks (Hyndman & Fan type 7).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// DetectOutliers flags the records whose value in column lies strictly
// outside [Q1 - factor*IQR, Q3 + factor*IQR]. Missing values are never
// flagged; a column without values yields an empty set.
func (c *Cleaner) DetectOutliers(ds *dataset.Dataset, column string, factor float64) (quality.OutlierSet, error) {
	set := quality.OutlierSet{Column: column, Factor: factor}
	if factor < 0 || math.IsNaN(factor) {
		return set, core.NewInvalidArgumentError("factor", fmt.Sprintf("%v is negative", factor))
	}
	col, err := ds.Numeric(column)
	if err != nil {
		return set, err
	}

	values := col.Present()
	if len(values) == 0 {
		set.Q1, set.Q3, set.IQR = math.NaN(), math.NaN(), math.NaN()
		set.Lower, set.Upper = math.NaN(), math.NaN()
		return set, nil
	}
	sort.Float64s(values)

	set.Q1 = Quantile(values, 0.25)
	set.Q3 = Quantile(values, 0.75)
	set.IQR = set.Q3 - set.Q1
	set.Lower = set.Q1 - factor*set.IQR
	set.Upper = set.Q3 + factor*set.IQR

	for row := 0; row < ds.Len(); row++ {
		v, ok := col.Float(row)
		if !ok {
			continue
		}
		if v < set.Lower || v > set.Upper {
			set.Records = append(set.Records, ds.RecordID(row))
		}
	}

	c.logger.Debug("%s IQR bounds [%.4f, %.4f] (Q1=%.4f Q3=%.4f factor=%g): %d flagged",
		column, set.Lower, set.Upper, set.Q1, set.Q3, factor, len(set.Records))
	return set, nil
}

// RemoveOutliers detects outliers for every column against the input
// dataset and removes the union of the flagged records by identity. A record
// removed for one column is not re-evaluated for the next.
func (c *Cleaner) RemoveOutliers(ds *dataset.Dataset, columns []string, factor float64) (*dataset.Dataset, []quality.OutlierSet, error) {
	sets := make([]quality.OutlierSet, 0, len(columns))
	drop := make(map[dataset.RecordID]struct{})

	for _, column := range columns {
		set, err := c.DetectOutliers(ds, column, factor)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, set)
		for _, id := range set.Records {
			drop[id] = struct{}{}
		}
		c.logger.Info("%d outliers removed from column %s.", set.Count(), column)
	}

	if len(drop) == 0 {
		return ds, sets, nil
	}
	return ds.Without(drop), sets, nil
}
