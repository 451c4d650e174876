package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// LeveneCenter selects the location each group's deviations are taken from
type LeveneCenter string

const (
	// CenterMedian is the Brown-Forsythe variant, robust to skewed groups
	CenterMedian LeveneCenter = "median"
	CenterMean   LeveneCenter = "mean"
)

var errNoSpread = errors.New("absolute deviations do not vary within groups")

// Levene computes Levene's test statistic for equal variances across
// groups and its p-value from F(k-1, N-k).
func Levene(groups [][]float64, center LeveneCenter) (w, p float64, err error) {
	k := len(groups)
	if k < 2 {
		return math.NaN(), math.NaN(), fmt.Errorf("need at least 2 groups, got %d", k)
	}

	dev := make([][]float64, k)
	total := 0
	for i, g := range groups {
		if len(g) == 0 {
			return math.NaN(), math.NaN(), fmt.Errorf("group %d is empty", i)
		}
		var c float64
		switch center {
		case CenterMean:
			c, err = stats.Mean(g)
		default:
			c, err = stats.Median(g)
		}
		if err != nil {
			return math.NaN(), math.NaN(), err
		}
		dev[i] = make([]float64, len(g))
		for j, v := range g {
			dev[i][j] = math.Abs(v - c)
		}
		total += len(g)
	}
	if total-k <= 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("no within-group degrees of freedom (N=%d, k=%d)", total, k)
	}

	grand := 0.0
	means := make([]float64, k)
	for i, d := range dev {
		means[i], _ = stats.Mean(d)
		grand += means[i] * float64(len(d))
	}
	grand /= float64(total)

	between, within := 0.0, 0.0
	for i, d := range dev {
		between += float64(len(d)) * (means[i] - grand) * (means[i] - grand)
		for _, z := range d {
			within += (z - means[i]) * (z - means[i])
		}
	}
	if within <= 0 {
		return math.NaN(), math.NaN(), errNoSpread
	}

	df1, df2 := float64(k-1), float64(total-k)
	w = (df2 / df1) * between / within
	return w, FTestPValue(w, df1, df2), nil
}
