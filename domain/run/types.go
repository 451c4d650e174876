// Package run describes one execution of the cleaning and analysis
// pipeline: the questions it answers and the report it produces.
package run

import (
	"fmt"
	"time"

	"cortexstat/domain/core"
	"cortexstat/domain/quality"
	"cortexstat/domain/stats"
)

// PlotKind selects the figure drawn for a question
type PlotKind string

const (
	PlotBox         PlotKind = "boxplot"
	PlotInteraction PlotKind = "interaction"
)

// Question is one fixed research question: a dependent variable, the
// factors it is tested against and the test used.
type Question struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Dependent string         `json:"dependent"`
	Factors   []string       `json:"factors"`
	Test      stats.TestType `json:"test"`
	// Hue splits the plot by a second factor; it is not part of the test
	Hue  string   `json:"hue,omitempty"`
	Plot PlotKind `json:"plot"`
}

// Columns returns every column the question reads
func (q Question) Columns() []string {
	cols := append([]string{}, q.Factors...)
	if q.Hue != "" && !contains(cols, q.Hue) {
		cols = append(cols, q.Hue)
	}
	return append(cols, q.Dependent)
}

// DefaultQuestions are the two questions of the memantine study
func DefaultQuestions() []Question {
	return StudyQuestions("Genotype", "Treatment")
}

// StudyQuestions builds the study questions over the given genotype and
// treatment columns
func StudyQuestions(genotype, treatment string) []Question {
	return []Question{
		{
			ID:        "Q1",
			Title:     "Does memantine treatment change BDNF_N levels?",
			Dependent: "BDNF_N",
			Factors:   []string{treatment},
			Test:      stats.TestRobustOneWay,
			Hue:       genotype,
			Plot:      PlotBox,
		},
		{
			ID:        "Q2",
			Title:     "Do genotype and treatment interact on pCREB_N levels?",
			Dependent: "pCREB_N",
			Factors:   []string{genotype, treatment},
			Test:      stats.TestTwoWayInteraction,
			Plot:      PlotInteraction,
		},
	}
}

// QuestionResult is the outcome of one question. Err is set when the test
// could not be computed; diagnostics are filled regardless.
type QuestionResult struct {
	Question    Question                `json:"question"`
	SubsetSize  int                     `json:"subset_size"`
	Normality   []stats.NormalityResult `json:"normality"`
	Homogeneity stats.HomogeneityResult `json:"homogeneity"`
	Result      *stats.AnovaResult      `json:"result,omitempty"`
	Err         error                   `json:"-"`
	PlotPath    string                  `json:"plot_path,omitempty"`
}

// Failed reports whether the test could not be computed
func (r QuestionResult) Failed() bool { return r.Err != nil || r.Result == nil }

// KeyEffect returns the effect the question's conclusion rests on: the
// single factor for one-way tests, the interaction for two-way tests.
func (r QuestionResult) KeyEffect() (stats.Effect, bool) {
	if r.Result == nil {
		return stats.Effect{}, false
	}
	f := r.Question.Factors
	if len(f) == 2 {
		return r.Result.Effect(stats.InteractionTerm(f[0], f[1]))
	}
	return r.Result.Effect(f[0])
}

// Conclusion states the finding at significance level alpha in plain words
func (r QuestionResult) Conclusion(alpha float64) string {
	q := r.Question
	if r.Failed() {
		return fmt.Sprintf("%s could not be answered: %v", q.ID, r.Err)
	}
	eff, ok := r.KeyEffect()
	if !ok {
		return fmt.Sprintf("%s could not be answered: no %s effect in the result", q.ID, q.Factors)
	}

	if len(q.Factors) == 2 {
		if eff.Significant(alpha) {
			return fmt.Sprintf("There is a significant interaction effect between %s and %s on %s levels (p = %.4f < %g).",
				q.Factors[0], q.Factors[1], q.Dependent, eff.PValue, alpha)
		}
		return fmt.Sprintf("There is no significant interaction effect between %s and %s on %s levels (p = %.4f >= %g).",
			q.Factors[0], q.Factors[1], q.Dependent, eff.PValue, alpha)
	}
	if eff.Significant(alpha) {
		return fmt.Sprintf("%s significantly affects %s levels (p = %.4f < %g).", q.Factors[0], q.Dependent, eff.PValue, alpha)
	}
	return fmt.Sprintf("%s does not significantly affect %s levels (p = %.4f >= %g).", q.Factors[0], q.Dependent, eff.PValue, alpha)
}

// Report is everything a run produced
type Report struct {
	Manifest   *Manifest        `json:"manifest"`
	Overview   quality.Summary  `json:"overview"`
	Cleaning   quality.Report   `json:"cleaning"`
	CleanedAt  string           `json:"cleaned_at"` // path of the saved cleaned table
	Questions  []QuestionResult `json:"questions"`
	FinishedAt core.Timestamp   `json:"finished_at"`
}

// Duration is the wall time from manifest creation to completion
func (r *Report) Duration() time.Duration {
	if r.Manifest == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Time().Sub(r.Manifest.CreatedAt.Time())
}

// Alpha returns the significance level the run used
func (r *Report) Alpha() float64 {
	if r.Manifest == nil || r.Manifest.Alpha <= 0 {
		return 0.05
	}
	return r.Manifest.Alpha
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
