// Package figures renders the figures of the research questions as PNG files.
package figures

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/run"
	"cortexstat/internal"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure size
const (
	figureWidth  = 8 * vg.Inch
	figureHeight = 5 * vg.Inch
)

// Plotter writes one PNG per question into Dir
type Plotter struct {
	Dir    string
	logger *internal.Logger
}

// NewPlotter creates a plotter writing into dir
func NewPlotter(dir string, logger *internal.Logger) *Plotter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Plotter{Dir: dir, logger: logger}
}

// Plot draws the question's figure: a grouped boxplot or an interaction
// plot of group means with standard deviation bars.
func (p *Plotter) Plot(ctx context.Context, ds *dataset.Dataset, q run.Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}

	var (
		path string
		err  error
	)
	switch q.Plot {
	case run.PlotBox:
		path = filepath.Join(p.Dir, q.Dependent+"_boxplot.png")
		err = p.boxplot(ds, q, path)
	case run.PlotInteraction:
		path = filepath.Join(p.Dir, q.Dependent+"_interaction_plot.png")
		err = p.interaction(ds, q, path)
	default:
		return "", core.NewInvalidArgumentError("plot", fmt.Sprintf("unknown kind %q", q.Plot))
	}
	if err != nil {
		return "", err
	}
	p.logger.Info("Saved %s plot for %s to %s", q.Plot, q.ID, path)
	return path, nil
}

// axes returns the x factor and the hue factor of a question's figure
func axes(q run.Question) (x, hue string) {
	switch {
	case len(q.Factors) == 2:
		// interaction plots put the second factor on the x axis, one line per level of the first
		return q.Factors[1], q.Factors[0]
	case q.Hue != "":
		return q.Factors[0], q.Hue
	default:
		return q.Factors[0], ""
	}
}

// cells splits the dependent values by x level and hue level. Rows missing
// any of the three are left out.
type cells struct {
	xLevels   []string
	hueLevels []string
	values    map[[2]int][]float64
}

func splitCells(ds *dataset.Dataset, dep, x, hue string) (*cells, error) {
	by := []string{x}
	if hue != "" {
		by = append(by, hue)
	}
	complete, err := ds.DropMissing(append(by, dep)...)
	if err != nil {
		return nil, err
	}
	col, err := complete.Numeric(dep)
	if err != nil {
		return nil, err
	}
	part, err := complete.Partition(by...)
	if err != nil {
		return nil, err
	}

	c := &cells{values: make(map[[2]int][]float64)}
	if c.xLevels, err = complete.Levels(x); err != nil {
		return nil, err
	}
	c.hueLevels = []string{""}
	if hue != "" {
		if c.hueLevels, err = complete.Levels(hue); err != nil {
			return nil, err
		}
	}
	xi, hi := index(c.xLevels), index(c.hueLevels)
	for _, g := range part.Groups {
		h := ""
		if hue != "" {
			h = g.Key[1]
		}
		c.values[[2]int{xi[g.Key[0]], hi[h]}] = col.PresentAt(g.Rows)
	}
	return c, nil
}

func (p *Plotter) boxplot(ds *dataset.Dataset, q run.Question, path string) error {
	x, hue := axes(q)
	c, err := splitCells(ds, q.Dependent, x, hue)
	if err != nil {
		return err
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s Levels by %s", q.Dependent, x)
	if hue != "" {
		pl.Title.Text += " and " + hue
	}
	pl.X.Label.Text = x
	pl.Y.Label.Text = q.Dependent
	pl.Legend.Top = true

	nh := float64(len(c.hueLevels))
	width := vg.Points(60 / nh)
	for j, h := range c.hueLevels {
		drawn := false
		for i := range c.xLevels {
			values := c.values[[2]int{i, j}]
			if len(values) == 0 {
				continue
			}
			offset := (float64(j) - (nh-1)/2) * 0.8 / nh
			box, err := plotter.NewBoxPlot(width, float64(i)+offset, plotter.Values(values))
			if err != nil {
				return fmt.Errorf("boxplot %s/%s: %w", c.xLevels[i], h, err)
			}
			box.FillColor = fill(j)
			pl.Add(box)
			drawn = true
		}
		if drawn && h != "" {
			pl.Legend.Add(h, swatch{color: fill(j)})
		}
	}
	pl.NominalX(c.xLevels...)

	return pl.Save(figureWidth, figureHeight, path)
}

// swatch is the legend entry of one hue: a box filled with its colour
type swatch struct {
	color color.Color
}

// Thumbnail implements plot.Thumbnailer
func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}

// meanSD is a line of group means with symmetric standard deviation bars
type meanSD struct {
	plotter.XYs
	plotter.YErrors
}

func (p *Plotter) interaction(ds *dataset.Dataset, q run.Question, path string) error {
	x, hue := axes(q)
	c, err := splitCells(ds, q.Dependent, x, hue)
	if err != nil {
		return err
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Interaction Effect: %s Levels by %s and %s", q.Dependent, x, hue)
	pl.X.Label.Text = x
	pl.Y.Label.Text = q.Dependent
	pl.Legend.Top = true

	for j, h := range c.hueLevels {
		var line meanSD
		for i := range c.xLevels {
			values := c.values[[2]int{i, j}]
			if len(values) == 0 {
				continue
			}
			mean, _ := stats.Mean(values)
			sd := 0.0
			if len(values) > 1 {
				sd, _ = stats.StandardDeviationSample(values)
			}
			line.XYs = append(line.XYs, plotter.XY{X: float64(i), Y: mean})
			line.YErrors = append(line.YErrors, struct{ Low, High float64 }{sd, sd})
		}
		if len(line.XYs) == 0 {
			continue
		}

		l, pts, err := plotter.NewLinePoints(line.XYs)
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(j)
		l.Dashes = plotutil.Dashes(j)
		pts.Color = plotutil.Color(j)
		pts.Shape = plotutil.Shape(j)

		bars, err := plotter.NewYErrorBars(line)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(j)

		pl.Add(l, pts, bars)
		pl.Legend.Add(h, l, pts)
	}
	pl.NominalX(c.xLevels...)

	return pl.Save(figureWidth, figureHeight, path)
}

func fill(i int) color.Color {
	c := color.NRGBAModel.Convert(plotutil.Color(i)).(color.NRGBA)
	c.A = 160
	return c
}

func index(levels []string) map[string]int {
	m := make(map[string]int, len(levels))
	for i, l := range levels {
		m[l] = i
	}
	return m
}
