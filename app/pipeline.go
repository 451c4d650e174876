package app

import (
	"context"
	stderrors "errors"
	"fmt"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/domain/quality"
	"cortexstat/domain/run"
	"cortexstat/domain/stats"
	"cortexstat/internal"
	"cortexstat/internal/analysis"
	"cortexstat/internal/cleaning"
	"cortexstat/internal/config"
	"cortexstat/internal/errors"
	"cortexstat/ports"

	"golang.org/x/sync/errgroup"
)

// PipelineConfig holds the parameters of one cleaning and analysis run
type PipelineConfig struct {
	Input            string
	CleanedOutput    string
	MissingThreshold float64
	OutlierFactor    float64
	Alpha            float64
	LeveneCenter     analysis.LeveneCenter
	Targets          []string
	GroupBy          []string
	ExpectedLevels   [][]string // per GroupBy column, for the balance check
	KeepColumns      []string   // empty keeps every column
	Questions        []run.Question
}

// NewPipelineConfig derives the pipeline parameters from the application
// configuration
func NewPipelineConfig(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		Input:            cfg.Paths.Input,
		CleanedOutput:    cfg.Paths.CleanedOutput,
		MissingThreshold: cfg.Cleaning.MissingThreshold,
		OutlierFactor:    cfg.Cleaning.OutlierFactor,
		Alpha:            cfg.Analysis.Alpha,
		LeveneCenter:     analysis.LeveneCenter(cfg.Analysis.LeveneCenter),
		Targets:          cfg.Cleaning.Targets,
		GroupBy:          cfg.Cleaning.GroupBy,
		ExpectedLevels:   cleaning.DefaultExpectedLevels,
		KeepColumns:      cfg.Cleaning.KeepColumns,
		Questions:        run.StudyQuestions(cfg.Analysis.GenotypeColumn, cfg.Analysis.TreatmentColumn),
	}
}

// Pipeline runs the study end to end: load, clean, save, reload, analyze,
// plot and report.
type Pipeline struct {
	cfg       PipelineConfig
	cleaner   *cleaning.Cleaner
	engine    *analysis.Engine
	repo      ports.DatasetRepository
	plotter   ports.PlotterPort
	reporters []ports.ReporterPort
	logger    *internal.Logger
}

// NewPipeline creates a pipeline. plotter may be nil to skip figures.
func NewPipeline(cfg PipelineConfig, repo ports.DatasetRepository, plotter ports.PlotterPort, reporters []ports.ReporterPort, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	engine := analysis.NewEngine(logger, cfg.Alpha)
	if cfg.LeveneCenter != "" {
		engine = engine.WithLeveneCenter(cfg.LeveneCenter)
	}
	return &Pipeline{
		cfg:       cfg,
		cleaner:   cleaning.NewCleaner(logger),
		engine:    engine,
		repo:      repo,
		plotter:   plotter,
		reporters: reporters,
		logger:    logger,
	}
}

// Config returns the pipeline parameters
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// Inspect summarizes a dataset and hands the summary to every reporter
func (p *Pipeline) Inspect(ctx context.Context, ds *dataset.Dataset) (quality.Summary, error) {
	summary := p.cleaner.Inspect(ds)
	for _, r := range p.reporters {
		if err := r.Overview(ctx, summary); err != nil {
			return summary, errors.RenderFailed("overview", err)
		}
	}
	return summary, nil
}

// Clean applies the cleaning steps in order: sparse columns, group-mean
// imputation of the targets, outlier removal on the targets, the balance
// check and the projection to KeepColumns.
func (p *Pipeline) Clean(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, quality.Report, error) {
	report := quality.Report{RowsIn: ds.Len()}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	out, dropped, err := p.cleaner.DropSparseColumns(ds, p.cfg.MissingThreshold)
	if err != nil {
		return nil, report, err
	}
	report.DroppedColumns = dropped

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	out, report.Imputation, err = p.cleaner.ImputeByGroup(out, p.cfg.Targets, p.cfg.GroupBy)
	if err != nil {
		return nil, report, err
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	out, report.Outliers, err = p.cleaner.RemoveOutliers(out, p.cfg.Targets, p.cfg.OutlierFactor)
	if err != nil {
		return nil, report, err
	}

	report.Balance = p.cleaner.CheckGroupBalance(out, p.cfg.GroupBy, p.cfg.ExpectedLevels)

	if len(p.cfg.KeepColumns) > 0 {
		if out, err = out.Select(p.cfg.KeepColumns...); err != nil {
			return nil, report, err
		}
		report.Projected = append([]string(nil), p.cfg.KeepColumns...)
	}

	report.RowsOut = out.Len()
	p.logger.Info("Cleaning done: %d -> %d rows, %d columns", report.RowsIn, report.RowsOut, out.Width())
	return out, report, nil
}

// Analyze answers every question concurrently over ds. Results are in
// question order. A question whose test fails keeps its diagnostics and
// carries the error; all such errors are joined into the returned error.
// Only cancellation yields a nil slice.
func (p *Pipeline) Analyze(ctx context.Context, ds *dataset.Dataset) ([]run.QuestionResult, error) {
	results := make([]run.QuestionResult, len(p.cfg.Questions))
	failures := make([]error, len(p.cfg.Questions))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range p.cfg.Questions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.answer(ds, q)
			if results[i].Err != nil {
				failures[i] = errors.AnalysisFailed(q.ID, results[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, stderrors.Join(failures...)
}

// answer runs the diagnostics and the test of one question on the complete
// cases of its columns
func (p *Pipeline) answer(ds *dataset.Dataset, q run.Question) run.QuestionResult {
	res := run.QuestionResult{Question: q}
	if len(q.Factors) == 0 {
		res.Err = core.NewInvalidArgumentError("factors", fmt.Sprintf("question %s has no factor", q.ID))
		return res
	}

	subset, err := ds.Select(q.Columns()...)
	if err == nil {
		subset, err = subset.DropMissing(q.Columns()...)
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.SubsetSize = subset.Len()
	p.logger.Info("%s: %s (%d complete rows)", q.ID, q.Title, res.SubsetSize)

	// diagnostics split by the last factor, the treatment axis of the plots
	diag := q.Factors[len(q.Factors)-1]
	res.Normality = p.engine.CheckNormality(subset, q.Dependent, diag)
	res.Homogeneity = p.engine.CheckHomogeneity(subset, q.Dependent, diag)

	switch q.Test {
	case stats.TestRobustOneWay:
		res.Result, res.Err = p.engine.RobustOneWayTest(subset, q.Dependent, q.Factors[0])
	case stats.TestClassicOneWay:
		res.Result, res.Err = p.engine.ClassicOneWayTest(subset, q.Dependent, q.Factors[0])
	case stats.TestTwoWayInteraction:
		if len(q.Factors) != 2 {
			res.Err = core.NewInvalidArgumentError("factors", fmt.Sprintf("%s needs two factors, got %v", q.Test, q.Factors))
			break
		}
		res.Result, res.Err = p.engine.TwoWayInteractionTest(subset, q.Dependent, q.Factors[0], q.Factors[1])
	default:
		res.Err = core.NewInvalidArgumentError("test", fmt.Sprintf("unsupported test %q", q.Test))
	}
	if res.Err != nil {
		p.logger.Warn("%s failed: %v", q.ID, res.Err)
	}
	return res
}

// Run executes the whole study. The returned report is non-nil once the
// input was loaded; failed questions are reported and their errors
// returned after the report is written.
func (p *Pipeline) Run(ctx context.Context) (*run.Report, error) {
	runID := core.NewRunID()
	logger := p.logger.With("run", runID.Short())
	logger.Info("=== Loading Data ===")

	inputHash, err := core.HashFile(p.cfg.Input)
	if err != nil {
		return nil, errors.LoadFailed(p.cfg.Input, core.NewLoadError(p.cfg.Input, err))
	}
	manifest := run.NewManifest(runID, p.cfg.Input, inputHash, run.Parameters{
		MissingThreshold: p.cfg.MissingThreshold,
		OutlierFactor:    p.cfg.OutlierFactor,
		Alpha:            p.cfg.Alpha,
		Targets:          p.cfg.Targets,
		GroupBy:          p.cfg.GroupBy,
	})

	raw, err := p.repo.Load(ctx, p.cfg.Input)
	if err != nil {
		return nil, errors.LoadFailed(p.cfg.Input, err)
	}
	report := &run.Report{Manifest: manifest}

	logger.Info("=== Inspecting and Cleaning Data ===")
	if report.Overview, err = p.Inspect(ctx, raw); err != nil {
		return report, err
	}
	cleaned, cleanReport, err := p.Clean(ctx, raw)
	report.Cleaning = cleanReport
	if err != nil {
		return report, errors.CleaningFailed(err)
	}

	logger.Info("=== Saving Cleaned Data ===")
	if err := p.repo.Save(ctx, cleaned, p.cfg.CleanedOutput); err != nil {
		return report, errors.SaveFailed(p.cfg.CleanedOutput, err)
	}
	report.CleanedAt = p.cfg.CleanedOutput

	logger.Info("=== Starting Data Analysis ===")
	reloaded, err := p.repo.Load(ctx, p.cfg.CleanedOutput)
	if err != nil {
		return report, errors.LoadFailed(p.cfg.CleanedOutput, err)
	}
	results, analysisErr := p.Analyze(ctx, reloaded)
	if results == nil {
		return report, analysisErr
	}
	report.Questions = results

	if p.plotter != nil {
		for i := range report.Questions {
			q := &report.Questions[i]
			if q.Failed() {
				continue
			}
			path, err := p.plotter.Plot(ctx, reloaded, q.Question)
			if err != nil {
				logger.Warn("Plot for %s failed: %v", q.Question.ID, err)
				continue
			}
			q.PlotPath = path
		}
	}

	report.FinishedAt = core.Now()
	for _, r := range p.reporters {
		if err := r.Report(ctx, report); err != nil {
			return report, errors.RenderFailed("report", err)
		}
	}
	logger.Info("=== Process Completed ===")
	return report, analysisErr
}
