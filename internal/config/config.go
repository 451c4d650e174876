package config

import (
	"os"
	"strconv"
	"strings"

	"cortexstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Cleaning CleaningConfig
	Analysis AnalysisConfig
	Output   OutputConfig
	LogLevel string
}

// PathConfig holds file system paths
type PathConfig struct {
	Input         string
	CleanedOutput string
}

// CleaningConfig holds the structural cleaning parameters
type CleaningConfig struct {
	MissingThreshold float64
	OutlierFactor    float64
	Targets          []string
	GroupBy          []string
	KeepColumns      []string
}

// AnalysisConfig holds the hypothesis-testing parameters
type AnalysisConfig struct {
	Alpha           float64
	GenotypeColumn  string
	TreatmentColumn string
	LeveneCenter    string // "median" (Brown-Forsythe) or "mean"
}

// OutputConfig holds plot and report destinations
type OutputConfig struct {
	PlotDir      string
	ReportDir    string
	PlotsEnabled bool
}

// Default returns the configuration of the reference study
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			Input:         "./data/Data_Cortex_Nuclear.csv",
			CleanedOutput: "./data/cleaned_relevant_data.csv",
		},
		Cleaning: CleaningConfig{
			MissingThreshold: 0.5,
			OutlierFactor:    3,
			Targets:          []string{"BDNF_N", "pCREB_N"},
			GroupBy:          []string{"Genotype", "Treatment"},
			KeepColumns:      []string{"MouseID", "Genotype", "Treatment", "BDNF_N", "pCREB_N"},
		},
		Analysis: AnalysisConfig{
			Alpha:           0.05,
			GenotypeColumn:  "Genotype",
			TreatmentColumn: "Treatment",
			LeveneCenter:    "median",
		},
		Output: OutputConfig{
			PlotDir:      "./out/plots",
			ReportDir:    "./out/reports",
			PlotsEnabled: true,
		},
		LogLevel: "INFO",
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	d := Default()

	config := &Config{
		Paths: PathConfig{
			Input:         getEnvOrDefault("CORTEX_INPUT", d.Paths.Input),
			CleanedOutput: getEnvOrDefault("CORTEX_CLEANED_OUTPUT", d.Paths.CleanedOutput),
		},
		Cleaning: CleaningConfig{
			MissingThreshold: getEnvFloatOrDefault("CORTEX_MISSING_THRESHOLD", d.Cleaning.MissingThreshold),
			OutlierFactor:    getEnvFloatOrDefault("CORTEX_OUTLIER_FACTOR", d.Cleaning.OutlierFactor),
			Targets:          getEnvListOrDefault("CORTEX_TARGETS", d.Cleaning.Targets),
			GroupBy:          getEnvListOrDefault("CORTEX_GROUP_BY", d.Cleaning.GroupBy),
			KeepColumns:      getEnvListOrDefault("CORTEX_KEEP_COLUMNS", d.Cleaning.KeepColumns),
		},
		Analysis: AnalysisConfig{
			Alpha:           getEnvFloatOrDefault("CORTEX_ALPHA", d.Analysis.Alpha),
			GenotypeColumn:  getEnvOrDefault("CORTEX_GENOTYPE_COLUMN", d.Analysis.GenotypeColumn),
			TreatmentColumn: getEnvOrDefault("CORTEX_TREATMENT_COLUMN", d.Analysis.TreatmentColumn),
			LeveneCenter:    strings.ToLower(getEnvOrDefault("CORTEX_LEVENE_CENTER", d.Analysis.LeveneCenter)),
		},
		Output: OutputConfig{
			PlotDir:      getEnvOrDefault("CORTEX_PLOT_DIR", d.Output.PlotDir),
			ReportDir:    getEnvOrDefault("CORTEX_REPORT_DIR", d.Output.ReportDir),
			PlotsEnabled: getEnvBoolOrDefault("CORTEX_PLOTS_ENABLED", d.Output.PlotsEnabled),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", d.LogLevel),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks ranges and required fields
func Validate(config *Config) error {
	if config.Paths.Input == "" {
		return errors.ConfigInvalid("input path is required")
	}
	if config.Cleaning.MissingThreshold < 0 || config.Cleaning.MissingThreshold > 1 {
		return errors.ConfigInvalid("missing-value threshold must be within [0, 1]")
	}
	if config.Cleaning.OutlierFactor < 0 {
		return errors.ConfigInvalid("outlier factor must not be negative")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be within (0, 1)")
	}
	if len(config.Cleaning.GroupBy) == 0 {
		return errors.ConfigInvalid("at least one group-by column is required")
	}
	if config.Analysis.GenotypeColumn == "" || config.Analysis.TreatmentColumn == "" {
		return errors.ConfigInvalid("genotype and treatment columns are required")
	}
	switch config.Analysis.LeveneCenter {
	case "median", "mean":
	default:
		return errors.ConfigInvalid("levene center must be median or mean, got " + strconv.Quote(config.Analysis.LeveneCenter))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
