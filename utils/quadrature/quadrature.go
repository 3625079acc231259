// Package quadrature implements adaptive Gauss-Kronrod integration of real functions
// over finite intervals, returning the integral together with an estimate of its absolute error.
package quadrature

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotConverged is returned when the subdivision limit is reached
	// before the error estimate falls below the requested tolerance.
	ErrNotConverged = errors.New("quadrature: integral did not converge")

	// ErrNonFinite is returned when the integrand evaluates to NaN or ±Inf.
	ErrNonFinite = errors.New("quadrature: non-finite integrand value")
)

// Kronrod 15-point abscissae, the odd indices are the 7-point Gauss abscissae.
var xgk = [8]float64{
	0.991455371120812639206854697526329,
	0.949107912342758524526189684047851,
	0.864864423359769072789712788640926,
	0.741531185599394439863864773280788,
	0.586087235467691130294144845693013,
	0.405845151377397166906606412076961,
	0.207784955007898467600689403773245,
	0.000000000000000000000000000000000,
}

var wgk = [8]float64{
	0.022935322010529224963732008058970,
	0.063092092629978553290700663189204,
	0.104790010322250183839876322541518,
	0.140653259715525918745189590510238,
	0.169004726639267902826583426598550,
	0.190350578064785409913256402421014,
	0.204432940075298892414161999234649,
	0.209482141084727828012999174891714,
}

var wg = [4]float64{
	0.129484966168869693270611432679082,
	0.279705391489276667901467771423780,
	0.381830050505118944950369775488975,
	0.417959183673469387755102040816327,
}

// Options are the stopping criteria of Integrate.
// The integration stops as soon as the total error estimate
// is below max(AbsTol, RelTol * |integral|).
type Options struct {
	AbsTol float64
	RelTol float64
	// Limit is the maximum number of subintervals.
	Limit int
}

// DefaultOptions returns the QUADPACK qags defaults: both tolerances
// set to 1.49e-8 and at most 50 subintervals.
func DefaultOptions() *Options {
	return &Options{
		AbsTol: 1.49e-8,
		RelTol: 1.49e-8,
		Limit:  50,
	}
}

// Result is the outcome of an integration.
type Result struct {
	Value       float64
	AbsErr      float64
	Intervals   int
	Evaluations int
}

type interval struct {
	a, b   float64
	value  float64
	absErr float64
}

// intervals is a max-heap on the error estimate.
type intervals []interval

func (h intervals) Len() int            { return len(h) }
func (h intervals) Less(i, j int) bool  { return h[i].absErr > h[j].absErr }
func (h intervals) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intervals) Push(x interface{}) { *h = append(*h, x.(interval)) }
func (h *intervals) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Integrate returns the definite integral of f over [a, b].
// If b < a, the integral over [b, a] is negated. opts == nil selects DefaultOptions.
// When the tolerance cannot be met within opts.Limit subintervals, the best
// estimate is returned together with an error wrapping ErrNotConverged.
func Integrate(f func(x float64) float64, a, b float64, opts *Options) (res Result, err error) {

	if opts == nil {
		opts = DefaultOptions()
	}

	if opts.Limit < 1 {
		return res, fmt.Errorf("quadrature: invalid subdivision limit %d", opts.Limit)
	}

	if opts.AbsTol < 0 || opts.RelTol < 0 || math.IsNaN(opts.AbsTol) || math.IsNaN(opts.RelTol) {
		return res, fmt.Errorf("quadrature: invalid tolerances (abs=%g, rel=%g)", opts.AbsTol, opts.RelTol)
	}

	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return res, fmt.Errorf("quadrature: invalid bounds [%g, %g]", a, b)
	}

	if a == b {
		return res, nil
	}

	if b < a {
		res, err = Integrate(f, b, a, opts)
		res.Value = -res.Value
		return
	}

	first := interval{a: a, b: b}
	first.value, first.absErr = kronrod(f, a, b)
	res.Evaluations = 15

	h := &intervals{first}
	total, totalErr := first.value, first.absErr

	for {

		if math.IsNaN(total) || math.IsInf(total, 0) || math.IsNaN(totalErr) {
			return Result{Intervals: h.Len(), Evaluations: res.Evaluations}, ErrNonFinite
		}

		if totalErr <= math.Max(opts.AbsTol, opts.RelTol*math.Abs(total)) {
			break
		}

		if h.Len() >= opts.Limit {
			res.Value, res.AbsErr, res.Intervals = total, totalErr, h.Len()
			return res, fmt.Errorf("%w: error estimate %g after %d subintervals", ErrNotConverged, totalErr, h.Len())
		}

		worst := heap.Pop(h).(interval)
		mid := 0.5 * (worst.a + worst.b)

		// The interval cannot be split further in float64.
		if mid <= worst.a || mid >= worst.b {
			heap.Push(h, worst)
			res.Value, res.AbsErr, res.Intervals = total, totalErr, h.Len()
			return res, fmt.Errorf("%w: interval [%g, %g] cannot be bisected", ErrNotConverged, worst.a, worst.b)
		}

		left := interval{a: worst.a, b: mid}
		left.value, left.absErr = kronrod(f, left.a, left.b)
		right := interval{a: mid, b: worst.b}
		right.value, right.absErr = kronrod(f, right.a, right.b)
		res.Evaluations += 30

		heap.Push(h, left)
		heap.Push(h, right)

		total += left.value + right.value - worst.value
		totalErr += left.absErr + right.absErr - worst.absErr
	}

	// Re-sums the heap to avoid the drift of the incremental updates.
	total, totalErr = 0, 0
	for _, iv := range *h {
		total += iv.value
		totalErr += iv.absErr
	}

	res.Value, res.AbsErr, res.Intervals = total, totalErr, h.Len()

	return
}

// kronrod applies the 15-point Kronrod rule on [a, b] and returns
// the integral estimate and |K15 - G7| as error estimate.
func kronrod(f func(x float64) float64, a, b float64) (value, absErr float64) {

	center := 0.5 * (a + b)
	halfLength := 0.5 * (b - a)

	fc := f(center)
	resG := fc * wg[3]
	resK := fc * wgk[7]

	for j := 0; j < 3; j++ {
		jj := 2*j + 1
		x := halfLength * xgk[jj]
		fsum := f(center-x) + f(center+x)
		resG += wg[j] * fsum
		resK += wgk[jj] * fsum
	}

	for j := 0; j < 4; j++ {
		jj := 2 * j
		x := halfLength * xgk[jj]
		resK += wgk[jj] * (f(center-x) + f(center+x))
	}

	return resK * halfLength, math.Abs((resK - resG) * halfLength)
}
