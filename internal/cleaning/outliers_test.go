package cleaning

import (
	"math"
	"testing"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}

	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.9))
}

func TestDetectOutliers_FlagsExtremeValue(t *testing.T) {
	ds, err := dataset.New(dataset.Floats("BDNF_N", 1, 1.5, 2, 3, 100))
	require.NoError(t, err)

	set, err := newCleaner().DetectOutliers(ds, "BDNF_N", 3)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, set.Q1, 1e-12)
	assert.InDelta(t, 3, set.Q3, 1e-12)
	assert.InDelta(t, -3, set.Lower, 1e-12)
	assert.InDelta(t, 7.5, set.Upper, 1e-12)
	assert.Equal(t, []dataset.RecordID{ds.RecordID(4)}, set.Records)
}

func TestDetectOutliers_IgnoresMissing(t *testing.T) {
	ds, err := dataset.New(dataset.Floats("BDNF_N", 1, nan, 2, 3, nan))
	require.NoError(t, err)

	set, err := newCleaner().DetectOutliers(ds, "BDNF_N", 0)
	require.NoError(t, err)
	for _, id := range set.Records {
		assert.NotEqual(t, ds.RecordID(1), id)
		assert.NotEqual(t, ds.RecordID(4), id)
	}
}

func TestDetectOutliers_AllMissing(t *testing.T) {
	ds, err := dataset.New(dataset.Floats("BDNF_N", nan, nan))
	require.NoError(t, err)

	set, err := newCleaner().DetectOutliers(ds, "BDNF_N", 3)
	require.NoError(t, err)
	assert.Zero(t, set.Count())
}

func TestDetectOutliers_Errors(t *testing.T) {
	ds := mockData(t)

	_, err := newCleaner().DetectOutliers(ds, "SOD1_N", 3)
	assert.ErrorIs(t, err, core.ErrMissingColumn)

	_, err = newCleaner().DetectOutliers(ds, "Genotype", 3)
	assert.ErrorIs(t, err, core.ErrColumnType)

	_, err = newCleaner().DetectOutliers(ds, "BDNF_N", -1)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDetectOutliers_MonotonicInFactor(t *testing.T) {
	ds, err := dataset.New(dataset.Floats("x", -40, -3, 0.1, 0.2, 0.4, 0.5, 0.9, 1.3, 2.2, 6, 15, 90))
	require.NoError(t, err)

	prev := math.MaxInt
	for _, k := range []float64{0, 0.5, 1, 1.5, 3, 10, 50} {
		set, err := newCleaner().DetectOutliers(ds, "x", k)
		require.NoError(t, err)
		assert.LessOrEqual(t, set.Count(), prev, "factor %v", k)
		prev = set.Count()
	}
}

func TestRemoveOutliers_Idempotent(t *testing.T) {
	ds, err := dataset.New(
		dataset.Labels("MouseID", "a", "b", "c", "d", "e"),
		dataset.Floats("BDNF_N", 1, 1.5, 2, 3, 100),
	)
	require.NoError(t, err)
	c := newCleaner()

	once, sets, err := c.RemoveOutliers(ds, []string{"BDNF_N"}, 3)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 4, once.Len())

	twice, sets, err := c.RemoveOutliers(once, []string{"BDNF_N"}, 3)
	require.NoError(t, err)
	assert.Zero(t, sets[0].Count())
	assert.Equal(t, once.RecordIDs(), twice.RecordIDs())
}

func TestRemoveOutliers_BoundsFromInputTable(t *testing.T) {
	// Record 5 is extreme in a; record 0 is extreme in b. Both bounds come
	// from the same six rows, so removing 5 first does not shift b's bounds.
	ds, err := dataset.New(
		dataset.Floats("a", 1, 2, 3, 4, 5, 500),
		dataset.Floats("b", -500, 2, 3, 4, 5, 6),
	)
	require.NoError(t, err)

	out, sets, err := newCleaner().RemoveOutliers(ds, []string{"a", "b"}, 1.5)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, []dataset.RecordID{ds.RecordID(5)}, sets[0].Records)
	assert.Equal(t, []dataset.RecordID{ds.RecordID(0)}, sets[1].Records)
	assert.Equal(t, []dataset.RecordID{ds.RecordID(1), ds.RecordID(2), ds.RecordID(3), ds.RecordID(4)}, out.RecordIDs())

	report := quality.Report{Outliers: sets}
	assert.Equal(t, 2, report.OutliersRemoved())
}

func TestRemoveOutliers_NothingFlaggedReturnsInput(t *testing.T) {
	ds, err := dataset.New(dataset.Floats("a", 1, 2, 3))
	require.NoError(t, err)

	out, _, err := newCleaner().RemoveOutliers(ds, []string{"a"}, 3)
	require.NoError(t, err)
	assert.Same(t, ds, out)
}
