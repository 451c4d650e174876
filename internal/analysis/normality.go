package analysis

import (
	"errors"
	"math"
	"sort"
)

// Royston (1995) approximation coefficients, algorithm AS R94
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// Shapiro-Wilk input limits
const (
	swMinN = 3
	swMaxN = 5000
)

var (
	errTooFewValues  = errors.New("fewer than 3 values")
	errTooManyValues = errors.New("more than 5000 values")
	errZeroRange     = errors.New("all values are identical")
)

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

// ShapiroWilk returns the W statistic and its p-value for values, using
// Royston's approximation of the coefficients and of the null distribution
// of W. It needs between 3 and 5000 values that are not all equal.
func ShapiroWilk(values []float64) (w, p float64, err error) {
	n := len(values)
	if n < swMinN {
		return math.NaN(), math.NaN(), errTooFewValues
	}
	if n > swMaxN {
		return math.NaN(), math.NaN(), errTooManyValues
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	if x[n-1]-x[0] <= 0 {
		return math.NaN(), math.NaN(), errZeroRange
	}

	a := swCoefficients(n)

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)
	ssq := 0.0
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}

	num := 0.0
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}
	w = num * num / ssq
	if w > 1 {
		w = 1
	}
	return w, swPValue(w, n), nil
}

// swCoefficients returns the antisymmetric weights a_1..a_{n/2} applied to
// x_(n+1-i) - x_(i)
func swCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, half)
	summ2 := 0.0
	for i := range m {
		m[i] = NormalQuantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

// swPValue is the upper-tail probability of W under normality
func swPValue(w float64, n int) float64 {
	if n == 3 {
		const sixOverPi, piOverThree = 6 / math.Pi, math.Pi / 3
		p := sixOverPi * (math.Asin(math.Sqrt(w)) - piOverThree)
		return clampProbability(p)
	}

	an := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, an)
		sigma = math.Exp(poly(swC4, an))
	} else {
		ln := math.Log(an)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}
	return NormalUpperTail((y - mu) / sigma)
}
