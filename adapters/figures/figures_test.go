package figures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/run"
	"cortexstat/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func studyData(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		dataset.Labels("Genotype", "Control", "Control", "Control", "Control", "Ts65Dn", "Ts65Dn", "Ts65Dn", "Ts65Dn", ""),
		dataset.Labels("Treatment", "Saline", "Saline", "Memantine", "Memantine", "Saline", "Saline", "Memantine", "Memantine", "Saline"),
		dataset.Floats("BDNF_N", 0.31, 0.35, 0.33, 0.30, 0.28, 0.29, 0.34, 0.36, 0.5),
		dataset.Floats("pCREB_N", 0.20, 0.22, 0.19, 0.18, 0.17, 0.21, 0.24, 0.25, 0.2),
	)
	require.NoError(t, err)
	return ds
}

func TestPlot_WritesBothFigures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	p := NewPlotter(dir, internal.NewNopLogger())

	for _, q := range run.DefaultQuestions() {
		path, err := p.Plot(context.Background(), studyData(t), q)
		require.NoError(t, err, q.ID)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		assert.Equal(t, dir, filepath.Dir(path))
	}
}

func TestPlot_UnknownKind(t *testing.T) {
	q := run.DefaultQuestions()[0]
	q.Plot = "violin"

	_, err := NewPlotter(t.TempDir(), internal.NewNopLogger()).Plot(context.Background(), studyData(t), q)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestPlot_MissingColumn(t *testing.T) {
	q := run.DefaultQuestions()[0]
	q.Dependent = "SOD1_N"

	_, err := NewPlotter(t.TempDir(), internal.NewNopLogger()).Plot(context.Background(), studyData(t), q)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestAxes(t *testing.T) {
	qs := run.DefaultQuestions()

	x, hue := axes(qs[0])
	assert.Equal(t, "Treatment", x)
	assert.Equal(t, "Genotype", hue)

	x, hue = axes(qs[1])
	assert.Equal(t, "Treatment", x)
	assert.Equal(t, "Genotype", hue)
}

func TestSplitCells_DropsIncompleteRows(t *testing.T) {
	c, err := splitCells(studyData(t), "BDNF_N", "Treatment", "Genotype")
	require.NoError(t, err)

	assert.Equal(t, []string{"Memantine", "Saline"}, c.xLevels)
	assert.Equal(t, []string{"Control", "Ts65Dn"}, c.hueLevels)
	assert.Equal(t, []float64{0.31, 0.35}, c.values[[2]int{1, 0}])
	total := 0
	for _, v := range c.values {
		total += len(v)
	}
	assert.Equal(t, 8, total)
}

func TestSwatch_FillsLegendThumbnail(t *testing.T) {
	var _ plot.Thumbnailer = swatch{}

	img := vgimg.New(vg.Points(20), vg.Points(20))
	dc := draw.New(img)
	swatch{color: fill(0)}.Thumbnail(&dc)

	bounds := img.Image().Bounds()
	r, g, b, _ := img.Image().At(bounds.Dx()/2, bounds.Dy()/2).RGBA()
	assert.False(t, r == 0xffff && g == 0xffff && b == 0xffff, "thumbnail must paint the hue colour")
}

func TestPlot_BoxplotWithoutHue(t *testing.T) {
	q := run.DefaultQuestions()[0]
	q.Hue = ""

	path, err := NewPlotter(t.TempDir(), internal.NewNopLogger()).Plot(context.Background(), studyData(t), q)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
