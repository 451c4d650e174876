package config

import (
	"testing"

	"cortexstat/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Cleaning.MissingThreshold)
	assert.Equal(t, 3.0, cfg.Cleaning.OutlierFactor)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, []string{"BDNF_N", "pCREB_N"}, cfg.Cleaning.Targets)
	assert.Equal(t, []string{"Genotype", "Treatment"}, cfg.Cleaning.GroupBy)
	assert.Equal(t, "median", cfg.Analysis.LeveneCenter)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CORTEX_INPUT", "/tmp/in.xlsx")
	t.Setenv("CORTEX_MISSING_THRESHOLD", "0.25")
	t.Setenv("CORTEX_OUTLIER_FACTOR", "1.5")
	t.Setenv("CORTEX_TARGETS", " BDNF_N , ,SOD1_N")
	t.Setenv("CORTEX_PLOTS_ENABLED", "false")
	t.Setenv("CORTEX_LEVENE_CENTER", "Mean")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/in.xlsx", cfg.Paths.Input)
	assert.Equal(t, 0.25, cfg.Cleaning.MissingThreshold)
	assert.Equal(t, 1.5, cfg.Cleaning.OutlierFactor)
	assert.Equal(t, []string{"BDNF_N", "SOD1_N"}, cfg.Cleaning.Targets)
	assert.False(t, cfg.Output.PlotsEnabled)
	assert.Equal(t, "mean", cfg.Analysis.LeveneCenter)
}

func TestLoad_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold above one", "CORTEX_MISSING_THRESHOLD", "1.5"},
		{"negative factor", "CORTEX_OUTLIER_FACTOR", "-1"},
		{"alpha of one", "CORTEX_ALPHA", "1"},
		{"unknown levene center", "CORTEX_LEVENE_CENTER", "trimmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
