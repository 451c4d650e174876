package container

import (
	"fmt"
	"io"

	"cortexstat/adapters/excel"
	"cortexstat/adapters/figures"
	"cortexstat/adapters/report"
	"cortexstat/app"
	"cortexstat/internal"
	"cortexstat/internal/config"
	"cortexstat/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Store    *excel.DataReader
	Plotter  ports.PlotterPort // nil when plots are disabled
	Console  *report.Console
	Document *report.Document

	Pipeline *app.Pipeline
}

// New wires the adapters and the pipeline for cfg. Console output goes to
// out, stdout when nil.
func New(cfg *config.Config, logger *internal.Logger, out io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Store:    excel.NewDataReader(excel.DefaultConfig(), logger),
		Console:  report.NewConsole(out),
		Document: report.NewDocument(cfg.Output.ReportDir, logger),
	}
	if cfg.Output.PlotsEnabled {
		c.Plotter = figures.NewPlotter(cfg.Output.PlotDir, logger)
	}

	c.Pipeline = app.NewPipeline(
		app.NewPipelineConfig(cfg),
		c.Store,
		c.Plotter,
		[]ports.ReporterPort{c.Console, c.Document},
		logger,
	)
	return c, nil
}

// Close flushes the logger
func (c *Container) Close() error {
	return c.Logger.Sync()
}
