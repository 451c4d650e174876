package main

import (
	"io"
	"path/filepath"
	"testing"

	"cortexstat/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverridesLoad_LeveneCenter(t *testing.T) {
	o := &overrides{threshold: -1, factor: -1, center: "MEAN"}
	cfg, err := o.load()
	require.NoError(t, err)
	assert.Equal(t, "mean", cfg.Analysis.LeveneCenter)

	o.center = "trimmed"
	_, err = o.load()
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestGenerateCmd_RejectsInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no mice", []string{"--mice", "0"}},
		{"negative replicates", []string{"--replicates", "-1"}},
		{"missing rate of one", []string{"--missing-rate", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "synthetic.csv")
			cmd := newGenerateCmd()
			cmd.SetArgs(append([]string{out}, tt.args...))
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Equal(t, 2, errors.ExitCode(err))
			assert.NoFileExists(t, out)
		})
	}
}
