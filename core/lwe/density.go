package lwe

import (
	"fmt"
	"math"

	"github.com/faler08/LWE-Cryptosystem/utils/quadrature"
)

// IntegrateDensity returns the integral of exp(-pi/beta^2 * (x-i)^2) over [lower, upper]
// and the absolute error estimate of the quadrature.
// The integral is zero if lower == upper and negated if lower > upper.
// A non-converging integral returns an error wrapping ErrNumerical.
// A beta so small that pi/beta^2 overflows float64 is rejected with ErrInvalidParameter.
func IntegrateDensity(i int64, lower, upper, beta float64) (value, absErr float64, err error) {
	var res quadrature.Result
	if res, err = integrateDensity(i, lower, upper, beta); err != nil {
		return 0, res.AbsErr, err
	}
	return res.Value, res.AbsErr, nil
}

// densityOptions are the stopping criteria of the density integrals, nil selects quadrature.DefaultOptions.
var densityOptions *quadrature.Options

func integrateDensity(i int64, lower, upper, beta float64) (res quadrature.Result, err error) {

	if !(beta > 0) || math.IsInf(beta, 1) {
		return res, fmt.Errorf("%w: beta must be a positive finite real but is %v", ErrInvalidParameter, beta)
	}

	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return res, fmt.Errorf("%w: invalid integration bounds [%v, %v]", ErrInvalidParameter, lower, upper)
	}

	c := math.Pi / (beta * beta)
	if math.IsInf(c, 1) {
		return res, fmt.Errorf("%w: beta=%v is too small, pi/beta^2 overflows", ErrInvalidParameter, beta)
	}

	center := float64(i)

	gaussian := func(x float64) float64 {
		d := x - center
		return math.Exp(-c * d * d)
	}

	if res, err = quadrature.Integrate(gaussian, lower, upper, densityOptions); err != nil {
		return res, fmt.Errorf("%w: density integral for i=%d over [%v, %v]: %w", ErrNumerical, i, lower, upper, err)
	}

	return
}
