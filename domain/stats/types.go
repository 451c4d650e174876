package stats

import (
	"fmt"
	"math"
)

// TestType names the statistical test that produced a result
type TestType string

const (
	TestRobustOneWay      TestType = "robust_one_way_anova"   // HC3 Wald F, unequal variances allowed
	TestClassicOneWay     TestType = "classic_one_way_anova"  // pooled-variance F
	TestTwoWayInteraction TestType = "two_way_anova_type2"    // main effects + interaction, Type II SS
	TestShapiroWilk       TestType = "shapiro_wilk"
	TestLevene            TestType = "levene"
)

// CovarianceType names the parameter covariance estimator behind an F test
type CovarianceType string

const (
	CovarianceNonRobust CovarianceType = "nonrobust"
	CovarianceHC3       CovarianceType = "HC3"
)

// ResidualTerm is the term name of the residual row
const ResidualTerm = "Residual"

// Effect is one row of an ANOVA table
type Effect struct {
	Term   string  `json:"term"`
	SumSq  float64 `json:"sum_sq"`
	DF     float64 `json:"df"`
	F      float64 `json:"f"`       // NaN on the residual row
	PValue float64 `json:"p_value"` // NaN on the residual row
}

// Significant reports whether the effect's p-value is below alpha
func (e Effect) Significant(alpha float64) bool {
	return !math.IsNaN(e.PValue) && e.PValue < alpha
}

// AnovaResult is an immutable ANOVA table
// INVARIANTS:
// - every effect SumSq >= 0
// - every effect PValue in [0, 1]
// - Residual.DF > 0
type AnovaResult struct {
	Test         TestType       `json:"test"`
	Dependent    string         `json:"dependent"`
	Factors      []string       `json:"factors"`
	Covariance   CovarianceType `json:"covariance"`
	Observations int            `json:"observations"`
	Effects      []Effect       `json:"effects"`
	Residual     Effect         `json:"residual"`
}

// Effect returns the row for term
func (r *AnovaResult) Effect(term string) (Effect, bool) {
	for _, e := range r.Effects {
		if e.Term == term {
			return e, true
		}
	}
	if term == ResidualTerm {
		return r.Residual, true
	}
	return Effect{}, false
}

// Rows returns the effect rows followed by the residual row
func (r *AnovaResult) Rows() []Effect {
	rows := make([]Effect, 0, len(r.Effects)+1)
	rows = append(rows, r.Effects...)
	return append(rows, r.Residual)
}

// InteractionTerm names the interaction of two factors, "A:B"
func InteractionTerm(a, b string) string {
	return fmt.Sprintf("%s:%s", a, b)
}

// NormalityResult is the Shapiro-Wilk outcome for one group
type NormalityResult struct {
	Group      string  `json:"group"`
	N          int     `json:"n"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Normal     bool    `json:"normal"`
	SkipReason string  `json:"skip_reason,omitempty"`
}

// Skipped reports whether the test could not run for this group
func (n NormalityResult) Skipped() bool { return n.SkipReason != "" }

// HomogeneityResult is the Levene outcome across all groups
type HomogeneityResult struct {
	Center     string  `json:"center"`
	Groups     int     `json:"groups"`
	N          int     `json:"n"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Equal      bool    `json:"equal"`
	SkipReason string  `json:"skip_reason,omitempty"`
}

// Skipped reports whether the test could not run
func (h HomogeneityResult) Skipped() bool { return h.SkipReason != "" }
