// Package analysis fits the linear models behind the study's hypothesis
// tests and runs the assumption diagnostics that accompany them.
package analysis

import (
	"fmt"
	"math"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/stats"
	"cortexstat/internal"
)

// DefaultAlpha is the significance level of the reference study
const DefaultAlpha = 0.05

// Engine runs ANOVA tests and their diagnostics over datasets. Engines are
// stateless apart from configuration and safe for concurrent use.
type Engine struct {
	logger *internal.Logger
	alpha  float64
	center LeveneCenter
}

// NewEngine creates an engine deciding significance at alpha. A nil logger
// falls back to DefaultLogger; alpha outside (0, 1) falls back to
// DefaultAlpha.
func NewEngine(logger *internal.Logger, alpha float64) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Engine{logger: logger, alpha: alpha, center: CenterMedian}
}

// WithLeveneCenter returns a copy of the engine using center for Levene's test
func (e *Engine) WithLeveneCenter(center LeveneCenter) *Engine {
	cp := *e
	cp.center = center
	return &cp
}

// Alpha returns the significance level
func (e *Engine) Alpha() float64 { return e.alpha }

// RobustOneWayTest fits dep ~ C(group) and tests the group effect with a
// Wald F statistic built on the HC3 covariance, so unequal group variances
// are allowed. SumSq on the effect row is the classical between-group sum
// of squares; F and PValue come from the robust test.
func (e *Engine) RobustOneWayTest(ds *dataset.Dataset, dep, group string) (*stats.AnovaResult, error) {
	const test = string(stats.TestRobustOneWay)

	fr, err := modelFrame(ds, dep, group)
	if err != nil {
		return nil, err
	}
	if err := checkOneWay(test, fr); err != nil {
		return nil, err
	}

	groupTerm := mainTerm(fr, 0)
	null, err := fitOLS(fr, []term{interceptTerm()})
	if err != nil {
		return nil, computationError(test, "intercept model cannot be fit", err)
	}
	full, err := fitOLS(fr, []term{interceptTerm(), groupTerm})
	if err != nil {
		return nil, computationError(test, "group model cannot be fit", err)
	}

	cov, err := full.hc3()
	if err != nil {
		return nil, computationError(test, "HC3 covariance undefined", err)
	}
	s, _ := full.span(groupTerm.name)
	f, err := full.waldF(cov, s)
	if err != nil {
		return nil, computationError(test, "Wald test failed", err)
	}

	df1, df2 := float64(s.size()), float64(full.dfResid())
	result := &stats.AnovaResult{
		Test:         stats.TestRobustOneWay,
		Dependent:    dep,
		Factors:      []string{group},
		Covariance:   stats.CovarianceHC3,
		Observations: fr.n(),
		Effects: []stats.Effect{{
			Term:   group,
			SumSq:  nonNegative(null.ssr - full.ssr),
			DF:     df1,
			F:      f,
			PValue: FTestPValue(f, df1, df2),
		}},
		Residual: residualRow(full),
	}

	e.logger.Info("Robust one-way ANOVA (HC3) for %s by %s: F=%.4f, p=%.4f (n=%d)", dep, group, f, result.Effects[0].PValue, fr.n())
	return result, nil
}

// ClassicOneWayTest is the pooled-variance one-way ANOVA F test
func (e *Engine) ClassicOneWayTest(ds *dataset.Dataset, dep, group string) (*stats.AnovaResult, error) {
	const test = string(stats.TestClassicOneWay)

	fr, err := modelFrame(ds, dep, group)
	if err != nil {
		return nil, err
	}
	if err := checkOneWay(test, fr); err != nil {
		return nil, err
	}

	null, err := fitOLS(fr, []term{interceptTerm()})
	if err != nil {
		return nil, computationError(test, "intercept model cannot be fit", err)
	}
	full, err := fitOLS(fr, []term{interceptTerm(), mainTerm(fr, 0)})
	if err != nil {
		return nil, computationError(test, "group model cannot be fit", err)
	}

	residual := residualRow(full)
	effect, err := nestedEffect(test, group, null.ssr-full.ssr, float64(len(fr.factors[0].levels)-1), residual)
	if err != nil {
		return nil, err
	}

	e.logger.Info("One-way ANOVA for %s by %s: F=%.4f, p=%.4f", dep, group, effect.F, effect.PValue)
	return &stats.AnovaResult{
		Test:         stats.TestClassicOneWay,
		Dependent:    dep,
		Factors:      []string{group},
		Covariance:   stats.CovarianceNonRobust,
		Observations: fr.n(),
		Effects:      []stats.Effect{effect},
		Residual:     residual,
	}, nil
}

// TwoWayInteractionTest fits dep ~ f1 + f2 + f1:f2 and decomposes the sums
// of squares with Type II comparisons: each main effect is adjusted for the
// other, the interaction for both. F statistics use the full model's
// residual mean square.
func (e *Engine) TwoWayInteractionTest(ds *dataset.Dataset, dep, f1, f2 string) (*stats.AnovaResult, error) {
	const test = string(stats.TestTwoWayInteraction)

	fr, err := modelFrame(ds, dep, f1, f2)
	if err != nil {
		return nil, err
	}
	for _, f := range fr.factors {
		if len(f.levels) < 2 {
			return nil, insufficient(test, fmt.Sprintf("factor %s has %d level(s), need at least 2", f.name, len(f.levels)))
		}
	}
	if err := checkCells(test, fr); err != nil {
		return nil, err
	}

	a, b := mainTerm(fr, 0), mainTerm(fr, 1)
	ab := interactionTerm(fr, 0, 1)
	icpt := interceptTerm()

	fits := make(map[string]*olsFit, 4)
	for _, m := range []struct {
		name  string
		terms []term
	}{
		{"a", []term{icpt, a}},
		{"b", []term{icpt, b}},
		{"ab", []term{icpt, a, b}},
		{"full", []term{icpt, a, b, ab}},
	} {
		fit, err := fitOLS(fr, m.terms)
		if err != nil {
			return nil, computationError(test, "model cannot be fit", err)
		}
		e.logger.Trace("Two-way ANOVA %s nested fit %s: SSR=%.6f df=%d", dep, m.name, fit.ssr, fit.dfResid())
		fits[m.name] = fit
	}

	full := fits["full"]
	if full.dfResid() <= 0 {
		return nil, insufficient(test, fmt.Sprintf("no residual degrees of freedom (%d observations, %d parameters)", full.n(), full.p()))
	}
	residual := residualRow(full)

	rows := []struct {
		term string
		ss   float64
		df   int
	}{
		{f1, fits["b"].ssr - fits["ab"].ssr, a.width(fr)},
		{f2, fits["a"].ssr - fits["ab"].ssr, b.width(fr)},
		{stats.InteractionTerm(f1, f2), fits["ab"].ssr - full.ssr, ab.width(fr)},
	}

	result := &stats.AnovaResult{
		Test:         stats.TestTwoWayInteraction,
		Dependent:    dep,
		Factors:      []string{f1, f2},
		Covariance:   stats.CovarianceNonRobust,
		Observations: fr.n(),
		Residual:     residual,
	}
	for _, r := range rows {
		effect, err := nestedEffect(test, r.term, r.ss, float64(r.df), residual)
		if err != nil {
			return nil, err
		}
		result.Effects = append(result.Effects, effect)
	}

	for _, eff := range result.Effects {
		e.logger.Info("Two-way ANOVA %s ~ %s: SS=%.4f df=%.0f F=%.4f p=%.4f", dep, eff.Term, eff.SumSq, eff.DF, eff.F, eff.PValue)
	}
	return result, nil
}

// CheckNormality runs Shapiro-Wilk on column within each level of groupCol.
// Groups the test cannot handle are returned with a SkipReason; problems
// with the columns themselves produce a single skipped result.
func (e *Engine) CheckNormality(ds *dataset.Dataset, column, groupCol string) []stats.NormalityResult {
	fr, err := modelFrame(ds, column, groupCol)
	if err != nil {
		e.logger.Warn("Normality check skipped for %s by %s: %v", column, groupCol, err)
		return []stats.NormalityResult{{Statistic: math.NaN(), PValue: math.NaN(), SkipReason: err.Error()}}
	}

	byLevel := fr.groupValues(0)
	results := make([]stats.NormalityResult, 0, len(byLevel))
	for i, level := range fr.factors[0].levels {
		values := byLevel[i]
		res := stats.NormalityResult{Group: level, N: len(values)}
		w, p, err := ShapiroWilk(values)
		if err != nil {
			res.Statistic, res.PValue = math.NaN(), math.NaN()
			res.SkipReason = err.Error()
			e.logger.Debug("Shapiro-Wilk skipped for %s in %s: %v", column, level, err)
		} else {
			res.Statistic, res.PValue = w, p
			res.Normal = p > e.alpha
			e.logger.Info("Shapiro-Wilk %s in %s: W=%.4f, p=%.4f", column, level, w, p)
		}
		results = append(results, res)
	}
	return results
}

// CheckHomogeneity runs Levene's test on column across the levels of
// groupCol. It never fails; untestable inputs yield a SkipReason.
func (e *Engine) CheckHomogeneity(ds *dataset.Dataset, column, groupCol string) stats.HomogeneityResult {
	res := stats.HomogeneityResult{Center: string(e.center), Statistic: math.NaN(), PValue: math.NaN()}

	fr, err := modelFrame(ds, column, groupCol)
	if err != nil {
		res.SkipReason = err.Error()
		e.logger.Warn("Homogeneity check skipped for %s by %s: %v", column, groupCol, err)
		return res
	}
	groups := fr.groupValues(0)
	res.Groups, res.N = len(groups), fr.n()

	w, p, err := Levene(groups, e.center)
	if err != nil {
		res.SkipReason = err.Error()
		e.logger.Warn("Levene's test skipped for %s by %s: %v", column, groupCol, err)
		return res
	}
	res.Statistic, res.PValue = w, p
	res.Equal = p > e.alpha
	e.logger.Info("Levene's test (%s) %s by %s: W=%.4f, p=%.4f", e.center, column, groupCol, w, p)
	return res
}

// groupValues splits the dependent values by the levels of factor f
func (fr *frame) groupValues(f int) [][]float64 {
	out := make([][]float64, len(fr.factors[f].levels))
	for row, code := range fr.factors[f].codes {
		out[code] = append(out[code], fr.y[row])
	}
	return out
}

func checkOneWay(test string, fr *frame) error {
	f := fr.factors[0]
	if len(f.levels) < 2 {
		return insufficient(test, fmt.Sprintf("%s has %d level(s), need at least 2", f.name, len(f.levels)))
	}
	for i, values := range fr.groupValues(0) {
		if len(values) < 2 {
			return insufficient(test, fmt.Sprintf("level has %d observation(s), need at least 2", len(values)), f.levels[i])
		}
	}
	return nil
}

// checkCells rejects designs with an empty factor-level combination; the
// interaction is not identifiable there.
func checkCells(test string, fr *frame) error {
	fa, fb := fr.factors[0], fr.factors[1]
	seen := make(map[[2]int]bool)
	for row := range fr.y {
		seen[[2]int{fa.codes[row], fb.codes[row]}] = true
	}
	for i, la := range fa.levels {
		for j, lb := range fb.levels {
			if !seen[[2]int{i, j}] {
				return insufficient(test, "empty design cell", la, lb)
			}
		}
	}
	return nil
}

func residualRow(fit *olsFit) stats.Effect {
	return stats.Effect{
		Term:   stats.ResidualTerm,
		SumSq:  fit.ssr,
		DF:     float64(fit.dfResid()),
		F:      math.NaN(),
		PValue: math.NaN(),
	}
}

// nestedEffect builds an effect row from the extra sum of squares of a
// nested model comparison, tested against the residual mean square.
func nestedEffect(test, name string, ss, df float64, residual stats.Effect) (stats.Effect, error) {
	ss = nonNegative(ss)
	if residual.DF <= 0 {
		return stats.Effect{}, insufficient(test, "no residual degrees of freedom")
	}
	mse := residual.SumSq / residual.DF
	if mse <= 0 {
		return stats.Effect{}, core.NewComputationError(test, "residual variance is zero")
	}
	f := (ss / df) / mse
	return stats.Effect{
		Term:   name,
		SumSq:  ss,
		DF:     df,
		F:      f,
		PValue: FTestPValue(f, df, residual.DF),
	}, nil
}

// nonNegative clamps round-off below zero; sums of squares are never negative
func nonNegative(ss float64) float64 {
	if ss < 0 {
		return 0
	}
	return ss
}

// insufficient reports a design with too few observations or levels to fit
func insufficient(test, reason string, combination ...string) error {
	ce := core.NewComputationError(test, reason, combination...)
	ce.Cause = core.ErrInsufficientData
	return ce
}

func computationError(test, reason string, cause error) error {
	ce := core.NewComputationError(test, reason)
	ce.Cause = cause
	return ce
}
