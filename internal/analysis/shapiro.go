package analysis

import (
	"math"
	"sort"
)

// Polynomial coefficients from Royston's algorithm AS R94 (1995), ascending
// order. swC1/swC2 adjust the two largest weights, swC3..swC6 parameterize the
// null distribution of the transformed statistic, swG gates the small-sample
// transform.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -2.0322e-3}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 3.8915e-3}
	swC6 = []float64{-0.4803, -0.082676, 3.0302e-3}
	swG  = []float64{-2.273, 0.459}
)

// poly evaluates a polynomial with ascending coefficients at x.
func poly(c []float64, x float64) float64 {
	res := c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		res = res*x + c[i]
	}
	return res
}

// ShapiroWilk computes the Shapiro-Wilk normality statistic and p-value for
// sample. Degenerate inputs short-circuit: any NaN yields (NaN, NaN), a
// zero-range sample yields (NaN, 0), and fewer than three observations yield
// (NaN, 1).
func ShapiroWilk(sample []float64) (float64, float64) {
	n := len(sample)
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	for _, v := range sample {
		if math.IsNaN(v) {
			return math.NaN(), math.NaN()
		}
	}

	x := make([]float64, n)
	copy(x, sample)
	sort.Float64s(x)

	if x[n-1] == x[0] {
		return math.NaN(), 0
	}
	if n < 3 {
		return math.NaN(), 1
	}

	w := shapiroWilkStatistic(x)
	return w, shapiroWilkPValue(w, n)
}

// shapiroWilkStatistic computes W for sorted data of length >= 3 with nonzero
// range.
func shapiroWilkStatistic(x []float64) float64 {
	n := len(x)
	n2 := n / 2

	// Expected normal order statistics for the lower half (negative values).
	m := make([]float64, n2)
	summ2 := 0.0
	for i := 0; i < n2; i++ {
		m[i] = dist.NormalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		summ2 += 2 * m[i] * m[i]
	}
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(float64(n))

	a := make([]float64, n2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
	} else {
		a1 := poly(swC1, rsn) - m[0]/ssumm2
		i1 := 1
		var fac float64
		if n > 5 {
			i1 = 2
			a2 := poly(swC2, rsn) - m[1]/ssumm2
			fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
			a[0], a[1] = a1, a2
		} else {
			fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
			a[0] = a1
		}
		for i := i1; i < n2; i++ {
			a[i] = -m[i] / fac
		}
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	ssq := 0.0
	for _, v := range x {
		d := v - mean
		ssq += d * d
	}

	num := 0.0
	for i := 0; i < n2; i++ {
		num += a[i] * (x[n-1-i] - x[i])
	}

	w := num * num / ssq
	if w > 1 {
		w = 1
	}
	return w
}

// shapiroWilkPValue transforms W into an upper-tail p-value for sample size n.
func shapiroWilkPValue(w float64, n int) float64 {
	if n == 3 {
		const (
			pi6  = 1.90985931710274  // 6/pi
			stqr = 1.04719755119660  // asin(sqrt(3/4))
		)
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p
	}

	y := math.Log(1 - w)
	an := float64(n)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-19
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, an)
		sigma = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		mu = poly(swC5, xx)
		sigma = math.Exp(poly(swC6, xx))
	}

	// Upper tail of the standard normal.
	return 1 - dist.NormalCDF((y-mu)/sigma)
}
