package container

import (
	"bytes"
	"testing"

	"cortexstat/internal"
	"cortexstat/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, internal.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNew_WiresPipeline(t *testing.T) {
	cfg := config.Default()
	c, err := New(cfg, internal.NewNopLogger(), &bytes.Buffer{})
	require.NoError(t, err)

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Plotter)
	require.NotNil(t, c.Pipeline)
	assert.Equal(t, cfg.Paths.Input, c.Pipeline.Config().Input)
	assert.Equal(t, cfg.Output.ReportDir, c.Document.Dir)
}

func TestNew_PlotsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Output.PlotsEnabled = false

	c, err := New(cfg, internal.NewNopLogger(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, c.Plotter)
}
