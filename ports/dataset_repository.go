package ports

import (
	"context"

	"cortexstat/domain/dataset"
)

// DatasetRepository loads and stores tabular datasets by path. The format
// is chosen by the implementation, typically from the file extension.
type DatasetRepository interface {
	Load(ctx context.Context, path string) (*dataset.Dataset, error)
	Save(ctx context.Context, ds *dataset.Dataset, path string) error
}
