package ports

import (
	"context"

	"cortexstat/domain/dataset"
	"cortexstat/domain/run"
)

// PlotterPort renders the figure of a research question and returns the
// path of the written image
type PlotterPort interface {
	Plot(ctx context.Context, ds *dataset.Dataset, q run.Question) (string, error)
}
