package report

import (
	"math"
	"strconv"
	"strings"

	"cortexstat/domain/run"
	"cortexstat/domain/stats"
)

// num formats a statistic with four decimals; NaN prints as a dash
func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if math.IsInf(v, 0) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// df formats degrees of freedom without decimals when integral
func df(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return num(v)
}

// anovaRows renders the effect and residual rows of a result as
// term, sum_sq, df, F, PR(>F)
func anovaRows(r *stats.AnovaResult) [][]string {
	rows := make([][]string, 0, len(r.Effects)+1)
	for _, e := range r.Rows() {
		rows = append(rows, []string{e.Term, num(e.SumSq), df(e.DF), num(e.F), num(e.PValue)})
	}
	return rows
}

var anovaHeader = []string{"Term", "sum_sq", "df", "F", "PR(>F)"}

func normalityRows(q run.QuestionResult) [][]string {
	rows := make([][]string, 0, len(q.Normality))
	for _, n := range q.Normality {
		verdict := "normal"
		switch {
		case n.Skipped():
			verdict = "skipped: " + n.SkipReason
		case !n.Normal:
			verdict = "not normal"
		}
		rows = append(rows, []string{n.Group, strconv.Itoa(n.N), num(n.Statistic), num(n.PValue), verdict})
	}
	return rows
}

var normalityHeader = []string{"Group", "n", "W", "p", "Verdict"}

func homogeneityLine(h stats.HomogeneityResult) string {
	if h.Skipped() {
		return "Levene's test skipped: " + h.SkipReason
	}
	verdict := "variances look equal"
	if !h.Equal {
		verdict = "variances differ"
	}
	return "Levene's test (" + h.Center + "): W = " + num(h.Statistic) + ", p = " + num(h.PValue) + ", " + verdict
}

func groupLabel(key []string) string {
	return strings.Join(key, " / ")
}
