package analysis

import (
	"fmt"
	"math"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"

	"gonum.org/v1/gonum/mat"
)

const (
	// maxCondition bounds the condition number of X'X before a fit is
	// treated as singular
	maxCondition = 1e12
	// leverageTol is how close to 1 a hat value may get before HC3 is undefined
	leverageTol = 1e-10
)

// factor is a categorical predictor coded against its sorted levels. The
// first level is the reference level of the treatment coding.
type factor struct {
	name   string
	levels []string
	codes  []int
}

// frame holds the complete cases of one model: the dependent values and the
// coded factors, row aligned.
type frame struct {
	dependent string
	y         []float64
	factors   []factor
	ids       []dataset.RecordID
}

// modelFrame extracts the complete cases for dep ~ factors. Rows missing the
// dependent value or any factor label are excluded, as a model fit would.
func modelFrame(ds *dataset.Dataset, dep string, factors ...string) (*frame, error) {
	if err := ds.Require(append([]string{dep}, factors...)...); err != nil {
		return nil, err
	}
	if _, err := ds.Numeric(dep); err != nil {
		return nil, err
	}
	for _, name := range factors {
		if _, err := ds.Categorical(name); err != nil {
			return nil, err
		}
	}

	complete, err := ds.DropMissing(append([]string{dep}, factors...)...)
	if err != nil {
		return nil, err
	}

	col, _ := complete.Numeric(dep)
	fr := &frame{
		dependent: dep,
		y:         make([]float64, complete.Len()),
		ids:       complete.RecordIDs(),
	}
	for i := range fr.y {
		fr.y[i], _ = col.Float(i)
	}

	for _, name := range factors {
		levels, err := complete.Levels(name)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(levels))
		for i, l := range levels {
			index[l] = i
		}
		labels, _ := complete.Categorical(name)
		f := factor{name: name, levels: levels, codes: make([]int, complete.Len())}
		for i := range f.codes {
			l, _ := labels.Label(i)
			f.codes[i] = index[l]
		}
		fr.factors = append(fr.factors, f)
	}
	return fr, nil
}

func (fr *frame) n() int { return len(fr.y) }

// term is a model term built from the frame's factors; no factors is the
// intercept.
type term struct {
	name    string
	factors []int
}

func interceptTerm() term { return term{name: "Intercept"} }

func mainTerm(fr *frame, f int) term {
	return term{name: fr.factors[f].name, factors: []int{f}}
}

func interactionTerm(fr *frame, a, b int) term {
	return term{
		name:    fr.factors[a].name + ":" + fr.factors[b].name,
		factors: []int{a, b},
	}
}

// width is the number of treatment-coded columns of t
func (t term) width(fr *frame) int {
	w := 1
	for _, f := range t.factors {
		w *= len(fr.factors[f].levels) - 1
	}
	return w
}

// span locates a term's coefficients in the design matrix
type span struct {
	term       string
	start, end int
}

func (s span) size() int { return s.end - s.start }

// designMatrix builds the treatment-coded design matrix of terms. A main
// effect contributes one indicator per non-reference level; an interaction
// contributes the products of its factors' indicators.
func designMatrix(fr *frame, terms []term) (*mat.Dense, []span) {
	p := 0
	spans := make([]span, len(terms))
	for i, t := range terms {
		spans[i] = span{term: t.name, start: p, end: p + t.width(fr)}
		p = spans[i].end
	}

	x := mat.NewDense(fr.n(), p, nil)
	for row := 0; row < fr.n(); row++ {
		for i, t := range terms {
			switch len(t.factors) {
			case 0:
				x.Set(row, spans[i].start, 1)
			case 1:
				code := fr.factors[t.factors[0]].codes[row]
				if code > 0 {
					x.Set(row, spans[i].start+code-1, 1)
				}
			case 2:
				fa, fb := fr.factors[t.factors[0]], fr.factors[t.factors[1]]
				ca, cb := fa.codes[row], fb.codes[row]
				if ca > 0 && cb > 0 {
					x.Set(row, spans[i].start+(ca-1)*(len(fb.levels)-1)+cb-1, 1)
				}
			}
		}
	}
	return x, spans
}

// olsFit is an ordinary least squares fit
type olsFit struct {
	x      *mat.Dense
	beta   *mat.VecDense
	resid  *mat.VecDense
	xtxInv *mat.SymDense
	spans  []span
	ssr    float64
}

func (f *olsFit) n() int { r, _ := f.x.Dims(); return r }
func (f *olsFit) p() int { _, c := f.x.Dims(); return c }

// dfResid is the residual degrees of freedom
func (f *olsFit) dfResid() int { return f.n() - f.p() }

// fitOLS fits y ~ terms through the normal equations. A rank deficient or
// badly conditioned design yields ErrSingularDesign.
func fitOLS(fr *frame, terms []term) (*olsFit, error) {
	x, spans := designMatrix(fr, terms)
	y := mat.NewVecDense(fr.n(), append([]float64(nil), fr.y...))
	_, p := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCondition {
		return nil, fmt.Errorf("%w: %d parameters", core.ErrSingularDesign, p)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
	}

	xtxInv := mat.NewSymDense(p, nil)
	if err := chol.InverseTo(xtxInv); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularDesign, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	resid := mat.NewVecDense(fr.n(), nil)
	resid.SubVec(y, &fitted)

	return &olsFit{
		x:      x,
		beta:   beta,
		resid:  resid,
		xtxInv: xtxInv,
		spans:  spans,
		ssr:    mat.Dot(resid, resid),
	}, nil
}

// span returns the coefficient span of the named term
func (f *olsFit) span(name string) (span, bool) {
	for _, s := range f.spans {
		if s.term == name {
			return s, true
		}
	}
	return span{}, false
}

// hc3 returns the HC3 heteroscedasticity-consistent covariance of the
// coefficients, (X'X)^-1 X' diag(e_i^2/(1-h_i)^2) X (X'X)^-1.
func (f *olsFit) hc3() (*mat.Dense, error) {
	p := f.p()
	meat := mat.NewSymDense(p, nil)
	for i := 0; i < f.n(); i++ {
		row := f.x.RowView(i)
		h := mat.Inner(row, f.xtxInv, row)
		if 1-h < leverageTol {
			return nil, fmt.Errorf("observation %d has leverage %.4g", i, h)
		}
		e := f.resid.AtVec(i)
		meat.SymRankOne(meat, e*e/((1-h)*(1-h)), row)
	}

	var tmp, cov mat.Dense
	tmp.Mul(f.xtxInv, meat)
	cov.Mul(&tmp, f.xtxInv)
	return &cov, nil
}

// waldF tests that the coefficients in s are all zero under the coefficient
// covariance cov and returns the F-form statistic W/q.
func (f *olsFit) waldF(cov mat.Matrix, s span) (float64, error) {
	q := s.size()
	lb := mat.NewVecDense(q, nil)
	sub := mat.NewDense(q, q, nil)
	for i := 0; i < q; i++ {
		lb.SetVec(i, f.beta.AtVec(s.start+i))
		for j := 0; j < q; j++ {
			sub.Set(i, j, cov.At(s.start+i, s.start+j))
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(sub, lb); err != nil {
		return math.NaN(), fmt.Errorf("%w: covariance of %s: %v", core.ErrSingularDesign, s.term, err)
	}
	w := mat.Dot(lb, &sol) / float64(q)
	if w < 0 {
		w = 0
	}
	return w, nil
}
