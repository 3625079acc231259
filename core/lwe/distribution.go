package lwe

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/google/go-cmp/cmp"
	"github.com/tuneinsight/lattigo/v5/utils/bignum"
)

// DiscreteGaussian is the probability mass function over {0, ..., q-1} obtained by
// periodizing modulo q a continuous Gaussian of spread beta and integrating it over
// each residue class [(k-1/2)/q, (k+1/2)/q].
//
// The periodization is the infinite sum over all integer translates i, truncated to
// -numTerms <= i <= numTerms. The relative mass lost by the truncation decays like
// exp(-pi * numTerms^2 / beta^2), see Diagnostics.TruncationBound.
//
// A DiscreteGaussian is immutable and can be shared by several samplers.
type DiscreteGaussian struct {
	beta     float64
	q        uint64
	numTerms int

	pmf []float64
	cdf []float64

	diagnostics Diagnostics
}

// Diagnostics reports the numerical quality of a DiscreteGaussian.
type Diagnostics struct {
	// MaxIntegrationError is the largest quadrature error estimate
	// of a single residue mass (scaled by 1/beta).
	MaxIntegrationError float64
	// TotalIntegrationError is the sum of all the quadrature
	// error estimates (scaled by 1/beta).
	TotalIntegrationError float64
	// Evaluations is the total number of integrand evaluations.
	Evaluations int
	// TruncationBound is an upper bound on the probability mass dropped
	// by truncating the periodization sum at ±numTerms.
	TruncationBound *big.Float
}

// NewDiscreteGaussian computes the periodized Gaussian masses of the residues of Z_q and normalizes them.
// Fails with ErrInvalidParameter if beta <= 0, q == 0 or numTerms < 1,
// with ErrNumerical if a density integral does not converge and with
// ErrInvalidDistribution if the total mass is zero or not finite.
func NewDiscreteGaussian(beta float64, q uint64, numTerms int) (dg *DiscreteGaussian, err error) {

	if !(beta > 0) || math.IsInf(beta, 1) {
		return nil, fmt.Errorf("%w: beta must be a positive finite real but is %v", ErrInvalidParameter, beta)
	}

	if q < 1 {
		return nil, fmt.Errorf("%w: q must be positive", ErrInvalidParameter)
	}

	if numTerms < 1 {
		return nil, fmt.Errorf("%w: num_terms must be positive but is %d", ErrInvalidParameter, numTerms)
	}

	dg = &DiscreteGaussian{
		beta:     beta,
		q:        q,
		numTerms: numTerms,
	}

	mass := make([]float64, q)

	qf := float64(q)
	for k := range mass {

		lower := (float64(k) - 0.5) / qf
		upper := (float64(k) + 0.5) / qf

		var sum, sumErr float64
		for i := -int64(numTerms); i <= int64(numTerms); i++ {
			res, err := integrateDensity(i, lower, upper, beta)
			if err != nil {
				return nil, fmt.Errorf("residue %d: %w", k, err)
			}
			sum += res.Value
			sumErr += res.AbsErr
			dg.diagnostics.Evaluations += res.Evaluations
		}

		mass[k] = sum / beta
		sumErr /= beta

		dg.diagnostics.TotalIntegrationError += sumErr
		dg.diagnostics.MaxIntegrationError = math.Max(dg.diagnostics.MaxIntegrationError, sumErr)
	}

	if dg.pmf, err = normalize(mass); err != nil {
		return nil, err
	}

	dg.cdf = cumulative(dg.pmf)
	dg.diagnostics.TruncationBound = TruncationBound(beta, numTerms)

	return
}

// normalize divides the masses by their sum.
func normalize(mass []float64) (pmf []float64, err error) {

	var total float64
	for _, m := range mass {
		total += m
	}

	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total mass is %v", ErrInvalidDistribution, total)
	}

	pmf = make([]float64, len(mass))
	for k := range mass {
		pmf[k] = mass[k] / total
	}

	return
}

// cumulative returns the cumulative sums of pmf, pinned to 1 from the
// last residue of non-zero probability onwards.
func cumulative(pmf []float64) (cdf []float64) {

	cdf = make([]float64, len(pmf))

	var acc float64
	last := 0
	for k, p := range pmf {
		acc += p
		cdf[k] = acc
		if p > 0 {
			last = k
		}
	}

	for k := last; k < len(cdf); k++ {
		cdf[k] = 1
	}

	return
}

// truncationPrec is the precision in bits of the truncation bound.
const truncationPrec = 128

// maxExpArg is the largest x for which exp(-x) does not underflow a big.Float.
const maxExpArg = 1e9

// TruncationBound returns an upper bound on the probability mass dropped
// when the periodization sum is truncated to the translates |i| <= numTerms:
//
//	(2/beta) * exp(-pi*N^2/beta^2) / (1 - exp(-2*pi*N/beta^2)), with N = numTerms.
//
// The value underflows float64 for most practical parameters, hence the big.Float.
func TruncationBound(beta float64, numTerms int) *big.Float {

	b := bignum.NewFloat(beta, truncationPrec)
	b2 := new(big.Float).Mul(b, b)
	n := bignum.NewFloat(numTerms, truncationPrec)

	// a = pi * N^2 / beta^2
	a := bignum.Pi(truncationPrec)
	a.Mul(a, n)
	a.Mul(a, n)
	a.Quo(a, b2)

	// d = 2 * pi * N / beta^2
	d := bignum.Pi(truncationPrec)
	d.Mul(d, n)
	d.Mul(d, bignum.NewFloat(2, truncationPrec))
	d.Quo(d, b2)

	num := expNeg(a)
	if num.Sign() == 0 {
		return num
	}

	den := new(big.Float).SetPrec(truncationPrec).SetInt64(1)
	den.Sub(den, expNeg(d))

	bound := new(big.Float).SetPrec(truncationPrec).Quo(bignum.NewFloat(2, truncationPrec), b)
	bound.Mul(bound, num)
	return bound.Quo(bound, den)
}

// expNeg returns exp(-x) for x >= 0, flushed to zero when it would underflow.
// The argument is reduced as x = (k + r) * ln(2) with 0 <= r < 1, so that
// exp(-x) = 2^-k * exp(-r * ln(2)).
func expNeg(x *big.Float) *big.Float {

	if f, _ := x.Float64(); f > maxExpArg {
		return new(big.Float).SetPrec(truncationPrec)
	}

	ln2 := bigfloat.Log(new(big.Float).SetPrec(truncationPrec).SetInt64(2))

	y := new(big.Float).Quo(x, ln2)
	k, _ := y.Int64()

	r := new(big.Float).Sub(y, new(big.Float).SetInt64(k))
	r.Mul(r, ln2)
	r.Neg(r)

	e := bigfloat.Exp(r)
	return e.SetMantExp(e, -int(k))
}

// Beta returns the spread of the distribution.
func (dg *DiscreteGaussian) Beta() float64 {
	return dg.beta
}

// Q returns the modulus, i.e. the size of the support.
func (dg *DiscreteGaussian) Q() uint64 {
	return dg.q
}

// NumTerms returns the truncation depth of the periodization sum.
func (dg *DiscreteGaussian) NumTerms() int {
	return dg.numTerms
}

// PMF returns a copy of the probability mass function.
func (dg *DiscreteGaussian) PMF() (pmf []float64) {
	pmf = make([]float64, len(dg.pmf))
	copy(pmf, dg.pmf)
	return
}

// Probability returns the probability of the residue k mod q.
func (dg *DiscreteGaussian) Probability(k uint64) float64 {
	return dg.pmf[k%dg.q]
}

// Diagnostics returns the numerical diagnostics gathered during the construction.
func (dg *DiscreteGaussian) Diagnostics() Diagnostics {
	d := dg.diagnostics
	if d.TruncationBound != nil {
		d.TruncationBound = new(big.Float).Copy(d.TruncationBound)
	}
	return d
}

// Mean returns the mean of the distribution, with the residues
// taken in the centered range (-q/2, q/2].
func (dg *DiscreteGaussian) Mean() (mean float64) {
	for k, p := range dg.pmf {
		mean += p * float64(Center(uint64(k), dg.q))
	}
	return
}

// StandardDeviation returns the standard deviation of the distribution,
// with the residues taken in the centered range (-q/2, q/2].
func (dg *DiscreteGaussian) StandardDeviation() float64 {
	mean := dg.Mean()
	var variance float64
	for k, p := range dg.pmf {
		d := float64(Center(uint64(k), dg.q)) - mean
		variance += p * d * d
	}
	return math.Sqrt(variance)
}

// Equal returns true if both distributions have the same parameters and probabilities.
func (dg *DiscreteGaussian) Equal(other *DiscreteGaussian) bool {
	return dg.beta == other.beta &&
		dg.q == other.q &&
		dg.numTerms == other.numTerms &&
		cmp.Equal(dg.pmf, other.pmf)
}
