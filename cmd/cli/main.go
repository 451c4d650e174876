package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cortexstat/adapters/excel"
	"cortexstat/domain/run"
	"cortexstat/internal"
	"cortexstat/internal/config"
	"cortexstat/internal/container"
	"cortexstat/internal/errors"
	"cortexstat/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// overrides are the command-line settings layered over the environment
type overrides struct {
	input     string
	output    string
	threshold float64
	factor    float64
	alpha     float64
	center    string
	plotDir   string
	reportDir string
	noPlots   bool
	logLevel  string
}

func (o *overrides) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.input, "input", "", "Raw data file (.csv or .xlsx); overrides CORTEX_INPUT")
	cmd.PersistentFlags().StringVar(&o.output, "output", "", "Cleaned data file; overrides CORTEX_CLEANED_OUTPUT")
	cmd.PersistentFlags().Float64Var(&o.threshold, "threshold", -1, "Drop columns with more than this share of missing values")
	cmd.PersistentFlags().Float64Var(&o.factor, "factor", -1, "IQR multiplier for outlier bounds")
	cmd.PersistentFlags().Float64Var(&o.alpha, "alpha", 0, "Significance level")
	cmd.PersistentFlags().StringVar(&o.center, "levene-center", "", "Levene's test centre, median or mean; overrides CORTEX_LEVENE_CENTER")
	cmd.PersistentFlags().StringVar(&o.plotDir, "plot-dir", "", "Directory for figures")
	cmd.PersistentFlags().StringVar(&o.reportDir, "report-dir", "", "Directory for the Markdown and HTML report")
	cmd.PersistentFlags().BoolVar(&o.noPlots, "no-plots", false, "Skip figures")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")
}

// load reads the environment configuration and applies the flags
func (o *overrides) load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.input != "" {
		cfg.Paths.Input = o.input
	}
	if o.output != "" {
		cfg.Paths.CleanedOutput = o.output
	}
	if o.threshold >= 0 {
		cfg.Cleaning.MissingThreshold = o.threshold
	}
	if o.factor >= 0 {
		cfg.Cleaning.OutlierFactor = o.factor
	}
	if o.alpha != 0 {
		cfg.Analysis.Alpha = o.alpha
	}
	if o.center != "" {
		cfg.Analysis.LeveneCenter = strings.ToLower(o.center)
	}
	if o.plotDir != "" {
		cfg.Output.PlotDir = o.plotDir
	}
	if o.reportDir != "" {
		cfg.Output.ReportDir = o.reportDir
	}
	if o.noPlots {
		cfg.Output.PlotsEnabled = false
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid flags")
	}
	return cfg, nil
}

// build loads the configuration and wires the container
func (o *overrides) build() (*container.Container, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return container.New(cfg, logger, os.Stdout)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var o overrides
	rootCmd := &cobra.Command{
		Use:           "cortexstat",
		Short:         "Clean mouse cortex protein expression data and test the memantine hypotheses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.register(rootCmd)

	rootCmd.AddCommand(
		newRunCmd(&o),
		newCleanCmd(&o),
		newAnalyzeCmd(&o),
		newInspectCmd(&o),
		newGenerateCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func newRunCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load, clean, save, analyze, plot and report",
		Long: `Run the whole study: the raw table is cleaned, saved, reloaded and both
research questions are answered.

Example: cortexstat run --input data/Data_Cortex_Nuclear.csv --report-dir out/reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.build()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.Pipeline.Run(cmd.Context())
			return err
		},
	}
}

func newCleanCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean the raw table and save the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.build()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			cfg := c.Config
			raw, err := c.Store.Load(ctx, cfg.Paths.Input)
			if err != nil {
				return errors.LoadFailed(cfg.Paths.Input, err)
			}
			cleaned, report, err := c.Pipeline.Clean(ctx, raw)
			if err != nil {
				return errors.CleaningFailed(err)
			}
			if err := c.Store.Save(ctx, cleaned, cfg.Paths.CleanedOutput); err != nil {
				return errors.SaveFailed(cfg.Paths.CleanedOutput, err)
			}
			c.Console.Cleaning(report)
			fmt.Fprintf(cmd.OutOrStdout(), "Cleaned data saved to %s\n", cfg.Paths.CleanedOutput)
			return nil
		},
	}
}

func newAnalyzeCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [cleaned-file]",
		Short: "Answer the research questions on an already cleaned table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.build()
			if err != nil {
				return err
			}
			defer c.Close()

			path := c.Config.Paths.CleanedOutput
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()
			ds, err := c.Store.Load(ctx, path)
			if err != nil {
				return errors.LoadFailed(path, err)
			}
			results, analysisErr := c.Pipeline.Analyze(ctx, ds)
			if results == nil {
				return analysisErr
			}
			report := &run.Report{Questions: results}
			if err := c.Console.Report(ctx, report); err != nil {
				return errors.RenderFailed("report", err)
			}
			return analysisErr
		},
	}
}

func newInspectCmd(o *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print shape, kinds, missing counts and distributions of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.build()
			if err != nil {
				return err
			}
			defer c.Close()

			path := c.Config.Paths.Input
			if len(args) == 1 {
				path = args[0]
			}
			ds, err := c.Store.Load(cmd.Context(), path)
			if err != nil {
				return errors.LoadFailed(path, err)
			}
			summary, _ := c.Pipeline.Inspect(cmd.Context(), ds)
			return c.Console.Overview(cmd.Context(), summary)
		},
	}
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultCortexConfig()

	cmd := &cobra.Command{
		Use:   "generate [output-file]",
		Short: "Write a synthetic table shaped like Data_Cortex_Nuclear",
		Long: `Generate a seeded synthetic expression table with 15 replicates per mouse,
sparse columns, missing values and outliers.

Example: cortexstat generate data/synthetic.csv --seed 7 --mice 18`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.MicePerGroup <= 0 || cfg.Replicates <= 0 {
				return errors.InvalidInput(fmt.Sprintf("--mice and --replicates must be positive, got %d and %d", cfg.MicePerGroup, cfg.Replicates))
			}
			if cfg.MissingRate < 0 || cfg.MissingRate >= 1 || cfg.OutlierRate < 0 || cfg.OutlierRate >= 1 {
				return errors.InvalidInput("--missing-rate and --outlier-rate must be in [0, 1)")
			}
			ds, err := testkit.NewCortexDataGenerator(cfg).Generate()
			if err != nil {
				return errors.Wrap(err, "generate")
			}
			store := excel.NewDataReader(excel.DefaultConfig(), internal.NewDefaultLogger())
			if err := store.Save(cmd.Context(), ds, args[0]); err != nil {
				return errors.SaveFailed(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows x %d columns to %s\n", ds.Len(), ds.Width(), args[0])
			return nil
		},
	}

	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cmd.Flags().IntVar(&cfg.MicePerGroup, "mice", cfg.MicePerGroup, "Mice per genotype and treatment")
	cmd.Flags().IntVar(&cfg.Replicates, "replicates", cfg.Replicates, "Measurements per mouse")
	cmd.Flags().Float64Var(&cfg.MissingRate, "missing-rate", cfg.MissingRate, "Share of missing cells")
	cmd.Flags().Float64Var(&cfg.OutlierRate, "outlier-rate", cfg.OutlierRate, "Share of outlying target values")
	return cmd
}
