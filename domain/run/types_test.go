package run

import (
	"errors"
	"testing"

	"cortexstat/domain/stats"

	"github.com/stretchr/testify/assert"
)

func TestQuestionColumns(t *testing.T) {
	qs := DefaultQuestions()
	assert.Equal(t, []string{"Treatment", "Genotype", "BDNF_N"}, qs[0].Columns())
	assert.Equal(t, []string{"Genotype", "Treatment", "pCREB_N"}, qs[1].Columns())
}

func TestConclusion(t *testing.T) {
	qs := DefaultQuestions()

	oneWay := QuestionResult{
		Question: qs[0],
		Result: &stats.AnovaResult{
			Effects: []stats.Effect{{Term: "Treatment", PValue: 0.01}},
		},
	}
	assert.Contains(t, oneWay.Conclusion(0.05), "Treatment significantly affects BDNF_N")
	assert.Contains(t, oneWay.Conclusion(0.001), "does not significantly affect")

	twoWay := QuestionResult{
		Question: qs[1],
		Result: &stats.AnovaResult{
			Effects: []stats.Effect{
				{Term: "Genotype", PValue: 0.001},
				{Term: "Treatment", PValue: 0.001},
				{Term: "Genotype:Treatment", PValue: 0.3},
			},
		},
	}
	eff, ok := twoWay.KeyEffect()
	assert.True(t, ok)
	assert.Equal(t, "Genotype:Treatment", eff.Term)
	assert.Contains(t, twoWay.Conclusion(0.05), "no significant interaction effect between Genotype and Treatment on pCREB_N")

	failed := QuestionResult{Question: qs[1], Err: errors.New("empty design cell")}
	assert.True(t, failed.Failed())
	assert.Contains(t, failed.Conclusion(0.05), "could not be answered")
}

func TestReportAlphaDefault(t *testing.T) {
	var r Report
	assert.Equal(t, 0.05, r.Alpha())
	assert.Zero(t, r.Duration())
}
