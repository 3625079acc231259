package lwe

import "errors"

var (
	// ErrInvalidParameter is returned for non-positive β, moduli or dimensions.
	ErrInvalidParameter = errors.New("lwe: invalid parameter")

	// ErrNumerical is returned when a density integral fails to converge within tolerance.
	ErrNumerical = errors.New("lwe: numerical error")

	// ErrInvalidDistribution is returned when the periodized masses cannot be normalized.
	ErrInvalidDistribution = errors.New("lwe: invalid distribution")

	// ErrDimensionMismatch is returned when matrix shapes are incompatible.
	ErrDimensionMismatch = errors.New("lwe: dimension mismatch")
)
