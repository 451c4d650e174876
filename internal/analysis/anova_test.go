package analysis

import (
	"errors"
	"math"
	"testing"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/stats"
	"cortexstat/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *Engine {
	return NewEngine(internal.NewNopLogger(), DefaultAlpha)
}

func mouseRows(t *testing.T, genotype, treatment []string, values []float64) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		dataset.Labels("Genotype", genotype...),
		dataset.Labels("Treatment", treatment...),
		dataset.Floats("BDNF_N", values...),
	)
	require.NoError(t, err)
	return ds
}

func scenarioData(t *testing.T) *dataset.Dataset {
	return mouseRows(t,
		[]string{"Control", "Control", "Ts65Dn", "Ts65Dn", "Control", "Ts65Dn"},
		[]string{"Saline", "Memantine", "Saline", "Memantine", "Memantine", "Saline"},
		[]float64{0.5, 0.7, 0.8, 1.2, 0.6, 1.1},
	)
}

// balanced 2x2 design, two replicates per cell
func balancedData(t *testing.T) *dataset.Dataset {
	return mouseRows(t,
		[]string{"Control", "Control", "Control", "Control", "Ts65Dn", "Ts65Dn", "Ts65Dn", "Ts65Dn"},
		[]string{"Saline", "Saline", "Memantine", "Memantine", "Saline", "Saline", "Memantine", "Memantine"},
		[]float64{1, 2, 3, 5, 2, 4, 6, 9},
	)
}

func TestRobustOneWayTest_Scenario(t *testing.T) {
	result, err := newEngine().RobustOneWayTest(scenarioData(t), "BDNF_N", "Treatment")
	require.NoError(t, err)

	require.Len(t, result.Effects, 1)
	eff := result.Effects[0]
	assert.Equal(t, "Treatment", eff.Term)
	assert.Equal(t, stats.CovarianceHC3, result.Covariance)
	assert.Equal(t, 6, result.Observations)
	assert.Equal(t, 1.0, eff.DF)
	assert.Equal(t, 4.0, result.Residual.DF)

	assert.False(t, math.IsNaN(eff.F) || math.IsInf(eff.F, 0))
	assert.GreaterOrEqual(t, eff.F, 0.0)
	assert.InDelta(t, 0.011494, eff.F, 1e-5)
	assert.GreaterOrEqual(t, eff.PValue, 0.0)
	assert.LessOrEqual(t, eff.PValue, 1.0)
	assert.Greater(t, eff.PValue, 0.9)
}

func TestRobustOneWayTest_KnownValue(t *testing.T) {
	// Two groups of three with unit variance: HC3 variance of the mean
	// difference is s0^2/(m-1) + s1^2/(m-1) = 1, so F = 3^2.
	ds, err := dataset.New(
		dataset.Labels("Treatment", "Saline", "Saline", "Saline", "Memantine", "Memantine", "Memantine"),
		dataset.Floats("BDNF_N", 1, 2, 3, 4, 5, 6),
	)
	require.NoError(t, err)

	result, err := newEngine().RobustOneWayTest(ds, "BDNF_N", "Treatment")
	require.NoError(t, err)

	eff := result.Effects[0]
	assert.InDelta(t, 9.0, eff.F, 1e-9)
	assert.InDelta(t, 13.5, eff.SumSq, 1e-9)
	assert.InDelta(t, 4.0, result.Residual.SumSq, 1e-9)
	assert.InDelta(t, FTestPValue(9, 1, 4), eff.PValue, 1e-12)
	assert.Less(t, eff.PValue, 0.05)
}

func TestRobustOneWayTest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     func(t *testing.T) *dataset.Dataset
		dep      string
		group    string
		sentinel error
	}{
		{
			name:     "missing dependent column",
			data:     scenarioData,
			dep:      "pCREB_N",
			group:    "Treatment",
			sentinel: core.ErrMissingColumn,
		},
		{
			name:     "missing group column",
			data:     scenarioData,
			dep:      "BDNF_N",
			group:    "Sex",
			sentinel: core.ErrMissingColumn,
		},
		{
			name: "single level",
			data: func(t *testing.T) *dataset.Dataset {
				return mouseRows(t, []string{"Control", "Control"}, []string{"Saline", "Saline"}, []float64{1, 2})
			},
			dep:      "BDNF_N",
			group:    "Treatment",
			sentinel: core.ErrComputation,
		},
		{
			name: "level with one observation",
			data: func(t *testing.T) *dataset.Dataset {
				return mouseRows(t,
					[]string{"Control", "Control", "Control"},
					[]string{"Saline", "Saline", "Memantine"},
					[]float64{1, 2, 3})
			},
			dep:      "BDNF_N",
			group:    "Treatment",
			sentinel: core.ErrInsufficientData,
		},
		{
			name: "empty dataset",
			data: func(t *testing.T) *dataset.Dataset {
				return mouseRows(t, nil, nil, nil)
			},
			dep:      "BDNF_N",
			group:    "Treatment",
			sentinel: core.ErrComputation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEngine().RobustOneWayTest(tt.data(t), tt.dep, tt.group)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestRobustOneWayTest_SingleObservationNamesLevel(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Control"},
		[]string{"Saline", "Saline", "Memantine"},
		[]float64{1, 2, 3})

	_, err := newEngine().RobustOneWayTest(ds, "BDNF_N", "Treatment")

	var ce *core.ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Memantine"}, ce.Combination)
}

func TestOneWayTests_TooFewObservationsIsInsufficientData(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Control"},
		[]string{"Saline", "Saline", "Memantine"},
		[]float64{1, 2, 3})

	tests := []struct {
		name string
		run  func() error
	}{
		{"robust", func() error { _, err := newEngine().RobustOneWayTest(ds, "BDNF_N", "Treatment"); return err }},
		{"classic", func() error { _, err := newEngine().ClassicOneWayTest(ds, "BDNF_N", "Treatment"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, core.ErrInsufficientData)
			assert.ErrorIs(t, err, core.ErrComputation)
			assert.NotErrorIs(t, err, core.ErrSingularDesign)
		})
	}
}

func TestRobustOneWayTest_IgnoresIncompleteRows(t *testing.T) {
	ds, err := dataset.New(
		dataset.Labels("Treatment", "Saline", "Saline", "Saline", "", "Memantine", "Memantine", "Memantine", "Memantine"),
		dataset.Floats("BDNF_N", 1, 2, 3, 100, 4, 5, 6, math.NaN()),
	)
	require.NoError(t, err)

	result, err := newEngine().RobustOneWayTest(ds, "BDNF_N", "Treatment")
	require.NoError(t, err)
	assert.Equal(t, 6, result.Observations)
	assert.InDelta(t, 9.0, result.Effects[0].F, 1e-9)
}

func TestClassicOneWayTest(t *testing.T) {
	ds, err := dataset.New(
		dataset.Labels("Treatment", "Saline", "Saline", "Saline", "Memantine", "Memantine", "Memantine"),
		dataset.Floats("BDNF_N", 1, 2, 3, 4, 5, 6),
	)
	require.NoError(t, err)

	result, err := newEngine().ClassicOneWayTest(ds, "BDNF_N", "Treatment")
	require.NoError(t, err)

	eff := result.Effects[0]
	assert.Equal(t, stats.CovarianceNonRobust, result.Covariance)
	assert.InDelta(t, 13.5, eff.F, 1e-9)
	assert.InDelta(t, 13.5, eff.SumSq, 1e-9)
	assert.InDelta(t, FTestPValue(13.5, 1, 4), eff.PValue, 1e-12)
}

func TestTwoWayInteractionTest_BalancedKnownValues(t *testing.T) {
	result, err := newEngine().TwoWayInteractionTest(balancedData(t), "BDNF_N", "Genotype", "Treatment")
	require.NoError(t, err)

	tests := []struct {
		term string
		ss   float64
		df   float64
		f    float64
	}{
		{"Genotype", 12.5, 1, 12.5 / 2.25},
		{"Treatment", 24.5, 1, 24.5 / 2.25},
		{"Genotype:Treatment", 2, 1, 2 / 2.25},
	}
	for _, tt := range tests {
		eff, ok := result.Effect(tt.term)
		require.True(t, ok, tt.term)
		assert.InDelta(t, tt.ss, eff.SumSq, 1e-9, tt.term)
		assert.Equal(t, tt.df, eff.DF, tt.term)
		assert.InDelta(t, tt.f, eff.F, 1e-9, tt.term)
		assert.InDelta(t, FTestPValue(tt.f, tt.df, 4), eff.PValue, 1e-12, tt.term)
	}

	res, ok := result.Effect(stats.ResidualTerm)
	require.True(t, ok)
	assert.InDelta(t, 9, res.SumSq, 1e-9)
	assert.Equal(t, 4.0, res.DF)
	assert.Len(t, result.Rows(), 4)
}

func TestTwoWayInteractionTest_AdditivityOnBalancedDesign(t *testing.T) {
	ds := balancedData(t)
	result, err := newEngine().TwoWayInteractionTest(ds, "BDNF_N", "Genotype", "Treatment")
	require.NoError(t, err)

	col, _ := ds.Numeric("BDNF_N")
	values := col.Present()
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	total := 0.0
	for _, v := range values {
		total += (v - mean) * (v - mean)
	}

	sum := 0.0
	for _, row := range result.Rows() {
		assert.GreaterOrEqual(t, row.SumSq, 0.0, row.Term)
		sum += row.SumSq
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestTwoWayInteractionTest_UnbalancedStaysValid(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Control", "Control", "Control", "Ts65Dn", "Ts65Dn", "Ts65Dn", "Ts65Dn"},
		[]string{"Saline", "Saline", "Saline", "Memantine", "Memantine", "Saline", "Saline", "Memantine", "Memantine"},
		[]float64{0.3, 0.5, 0.4, 0.9, 1.1, 0.6, 0.8, 0.7, 1.4},
	)

	result, err := newEngine().TwoWayInteractionTest(ds, "BDNF_N", "Genotype", "Treatment")
	require.NoError(t, err)
	for _, eff := range result.Effects {
		assert.GreaterOrEqual(t, eff.SumSq, 0.0, eff.Term)
		assert.GreaterOrEqual(t, eff.F, 0.0, eff.Term)
		assert.GreaterOrEqual(t, eff.PValue, 0.0, eff.Term)
		assert.LessOrEqual(t, eff.PValue, 1.0, eff.Term)
	}
	assert.Equal(t, 5.0, result.Residual.DF)
}

func TestTwoWayInteractionTest_EmptyCell(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Control", "Ts65Dn", "Ts65Dn"},
		[]string{"Saline", "Memantine", "Saline", "Saline", "Saline"},
		[]float64{0.5, 0.7, 0.6, 0.8, 1.1},
	)

	_, err := newEngine().TwoWayInteractionTest(ds, "BDNF_N", "Genotype", "Treatment")
	require.Error(t, err)
	assert.True(t, core.IsComputationError(err))

	var ce *core.ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Ts65Dn", "Memantine"}, ce.Combination)
	assert.Contains(t, err.Error(), "Ts65Dn")
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestTwoWayInteractionTest_NoResidualDegreesOfFreedom(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Ts65Dn", "Ts65Dn"},
		[]string{"Saline", "Memantine", "Saline", "Memantine"},
		[]float64{0.5, 0.7, 0.8, 1.2},
	)

	_, err := newEngine().TwoWayInteractionTest(ds, "BDNF_N", "Genotype", "Treatment")
	assert.ErrorIs(t, err, core.ErrComputation)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestTwoWayInteractionTest_MissingFactor(t *testing.T) {
	_, err := newEngine().TwoWayInteractionTest(balancedData(t), "BDNF_N", "Genotype", "Sex")
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestCheckNormality(t *testing.T) {
	ds := mouseRows(t,
		[]string{"Control", "Control", "Control", "Control", "Ts65Dn", "Ts65Dn"},
		[]string{"Saline", "Saline", "Saline", "Saline", "Memantine", "Memantine"},
		[]float64{0.5, 0.7, 0.6, 0.9, 1.2, 1.1},
	)

	results := newEngine().CheckNormality(ds, "BDNF_N", "Treatment")
	require.Len(t, results, 2)

	memantine, saline := results[0], results[1]
	assert.Equal(t, "Memantine", memantine.Group)
	assert.True(t, memantine.Skipped(), "two values are too few for Shapiro-Wilk")

	assert.Equal(t, "Saline", saline.Group)
	assert.False(t, saline.Skipped())
	assert.Equal(t, 4, saline.N)
	assert.Greater(t, saline.Statistic, 0.0)
	assert.LessOrEqual(t, saline.Statistic, 1.0)
	assert.GreaterOrEqual(t, saline.PValue, 0.0)
	assert.LessOrEqual(t, saline.PValue, 1.0)
}

func TestCheckNormality_MissingColumnNeverFails(t *testing.T) {
	results := newEngine().CheckNormality(scenarioData(t), "pCREB_N", "Treatment")
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped())
}

func TestCheckHomogeneity(t *testing.T) {
	result := newEngine().CheckHomogeneity(scenarioData(t), "BDNF_N", "Treatment")
	require.False(t, result.Skipped(), result.SkipReason)
	assert.Equal(t, string(CenterMedian), result.Center)
	assert.Equal(t, 2, result.Groups)
	assert.Equal(t, 6, result.N)
	assert.GreaterOrEqual(t, result.PValue, 0.0)
	assert.LessOrEqual(t, result.PValue, 1.0)

	missing := newEngine().CheckHomogeneity(scenarioData(t), "BDNF_N", "Sex")
	assert.True(t, missing.Skipped())
}

func TestCheckHomogeneity_MeanCenter(t *testing.T) {
	engine := newEngine().WithLeveneCenter(CenterMean)
	result := engine.CheckHomogeneity(balancedData(t), "BDNF_N", "Treatment")
	require.False(t, result.Skipped(), result.SkipReason)
	assert.Equal(t, string(CenterMean), result.Center)

	// Memantine 3 5 6 9, Saline 1 2 2 4
	w, p, err := Levene([][]float64{{3, 5, 6, 9}, {1, 2, 2, 4}}, CenterMean)
	require.NoError(t, err)
	assert.InDelta(t, w, result.Statistic, 1e-12)
	assert.InDelta(t, p, result.PValue, 1e-12)

	median := newEngine().CheckHomogeneity(balancedData(t), "BDNF_N", "Treatment")
	assert.Equal(t, string(CenterMedian), median.Center, "WithLeveneCenter returns a copy")
}
