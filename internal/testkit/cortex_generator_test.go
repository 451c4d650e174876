package testkit

import (
	"testing"

	"cortexstat/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() CortexGeneratorConfig {
	config := DefaultCortexConfig()
	config.MicePerGroup = 3
	config.Replicates = 5
	config.ExtraCount = 2
	return config
}

func TestCortexDataGenerator_Shape(t *testing.T) {
	generator := NewCortexDataGenerator(smallConfig())
	ds, err := generator.Generate()
	require.NoError(t, err)

	assert.Equal(t, 2*2*3*5, ds.Len())
	assert.Equal(t, generator.Rows(), ds.Len())
	assert.Equal(t, 1+len(baseProteins)+2+len(SparseColumns)+4, ds.Width())

	for _, name := range []string{"MouseID", "Genotype", "Treatment", "Behavior", "class"} {
		col, err := ds.Column(name)
		require.NoError(t, err)
		assert.Equal(t, dataset.Categorical, col.Kind(), name)
	}
	for _, name := range []string{"BDNF_N", "pCREB_N", "P01_N", "BAD_N"} {
		_, err := ds.Numeric(name)
		assert.NoError(t, err, name)
	}
}

func TestCortexDataGenerator_BalancedDesign(t *testing.T) {
	ds, err := NewCortexDataGenerator(smallConfig()).Generate()
	require.NoError(t, err)

	partition, err := ds.Partition("Genotype", "Treatment")
	require.NoError(t, err)
	require.Len(t, partition.Groups, 4)
	for _, g := range partition.Groups {
		assert.Equal(t, 15, g.Size(), "group %s", g.Key)
	}
}

func TestCortexDataGenerator_ReplicatesShareMouse(t *testing.T) {
	ds, err := NewCortexDataGenerator(smallConfig()).Generate()
	require.NoError(t, err)

	ids, _ := ds.Categorical("MouseID")
	first, _ := ids.Label(0)
	fifth, _ := ids.Label(4)
	sixth, _ := ids.Label(5)
	assert.Equal(t, "301_1", first)
	assert.Equal(t, "301_5", fifth)
	assert.Equal(t, "302_1", sixth)
}

func TestCortexDataGenerator_SparseColumnsMostlyMissing(t *testing.T) {
	config := DefaultCortexConfig()
	ds, err := NewCortexDataGenerator(config).Generate()
	require.NoError(t, err)

	counts := ds.MissingCounts()
	for _, name := range SparseColumns {
		assert.Greater(t, counts[name], ds.Len()/2, name)
	}
	assert.Less(t, counts["BDNF_N"], ds.Len()/10)
	assert.Equal(t, 0, counts["Genotype"])
}

func TestCortexDataGenerator_Deterministic(t *testing.T) {
	a, err := NewCortexDataGenerator(smallConfig()).Generate()
	require.NoError(t, err)
	b, err := NewCortexDataGenerator(smallConfig()).Generate()
	require.NoError(t, err)

	colA, _ := a.Numeric("BDNF_N")
	colB, _ := b.Numeric("BDNF_N")
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, colA.Format(i), colB.Format(i), "row %d", i)
	}
}

func TestCortexDataGenerator_EmptyDesign(t *testing.T) {
	config := smallConfig()
	config.MicePerGroup = 0
	_, err := NewCortexDataGenerator(config).Generate()
	assert.Error(t, err)
}

func TestClassLabel(t *testing.T) {
	assert.Equal(t, "c-CS-m", classLabel("Control", "C/S", "Memantine"))
	assert.Equal(t, "t-SC-s", classLabel("Ts65Dn", "S/C", "Saline"))
}
