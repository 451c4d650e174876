package ports

import (
	"context"

	"cortexstat/domain/quality"
	"cortexstat/domain/run"
)

// ReporterPort presents the outcome of a run
type ReporterPort interface {
	Overview(ctx context.Context, summary quality.Summary) error
	Report(ctx context.Context, report *run.Report) error
}
