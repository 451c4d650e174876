package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// FTestPValue returns the upper-tail probability of f under F(df1, df2).
// Degenerate inputs map to 1; an infinite statistic maps to 0.
func FTestPValue(f float64, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(f) || f <= 0 {
		return 1.0
	}
	if math.IsInf(f, 1) {
		return 0
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return clampProbability(1 - fDist.CDF(f))
}

// NormalUpperTail returns P(Z > z) for a standard normal Z
func NormalUpperTail(z float64) float64 {
	return clampProbability(distuv.UnitNormal.Survival(z))
}

// NormalQuantile computes the inverse CDF of the standard normal
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
