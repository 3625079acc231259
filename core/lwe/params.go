package lwe

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
)

// DefaultNumTerms is the default truncation depth of the periodization sum.
const DefaultNumTerms = 100

// ParametersLiteral is a literal representation of the LWE parameters.
// It has public fields and is used to express unchecked user-defined parameters
// literally into Go programs. The NewParametersFromLiteral function is used to
// generate the actual checked parameters from the literal representation.
//
// A zero NumTerms selects DefaultNumTerms. A zero T means that no plaintext modulus is set.
type ParametersLiteral struct {
	N        int     `json:"n"`
	M        int     `json:"m"`
	L        int     `json:"l"`
	Q        uint64  `json:"q"`
	T        uint64  `json:"t,omitempty"`
	Beta     float64 `json:"beta"`
	NumTerms int     `json:"num_terms,omitempty"`
}

// Parameters is an immutable set of checked LWE parameters:
// the matrix dimensions n, m and l, the ciphertext modulus q, the optional
// plaintext modulus t, the error spread β and the truncation depth of the error distribution.
type Parameters struct {
	n        int     // rows of A and S
	m        int     // columns of A, rows of E
	l        int     // columns of S and E
	q        uint64  // ciphertext modulus
	t        uint64  // plaintext modulus
	beta     float64 // error spread
	numTerms int     // truncation depth
}

// NewParametersFromLiteral checks the literal and returns the corresponding Parameters.
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.NumTerms == 0 {
		pl.NumTerms = DefaultNumTerms
	}

	switch {
	case pl.N < 1 || pl.M < 1 || pl.L < 1:
		return params, fmt.Errorf("%w: dimensions must be positive but are n=%d, m=%d, l=%d", ErrInvalidParameter, pl.N, pl.M, pl.L)
	case pl.Q < 1:
		return params, fmt.Errorf("%w: q must be positive", ErrInvalidParameter)
	case pl.T != 0 && pl.T >= pl.Q:
		return params, fmt.Errorf("%w: t=%d must be smaller than q=%d", ErrInvalidParameter, pl.T, pl.Q)
	case !(pl.Beta > 0) || math.IsInf(pl.Beta, 1):
		return params, fmt.Errorf("%w: beta must be a positive finite real but is %v", ErrInvalidParameter, pl.Beta)
	case pl.NumTerms < 1:
		return params, fmt.Errorf("%w: num_terms must be positive but is %d", ErrInvalidParameter, pl.NumTerms)
	}

	return Parameters{
		n:        pl.N,
		m:        pl.M,
		l:        pl.L,
		q:        pl.Q,
		t:        pl.T,
		beta:     pl.Beta,
		numTerms: pl.NumTerms,
	}, nil
}

// N returns the number of rows of A and S.
func (p Parameters) N() int {
	return p.n
}

// M returns the number of columns of A.
func (p Parameters) M() int {
	return p.m
}

// L returns the number of columns of S.
func (p Parameters) L() int {
	return p.l
}

// Q returns the ciphertext modulus.
func (p Parameters) Q() uint64 {
	return p.q
}

// T returns the plaintext modulus, 0 if unset.
func (p Parameters) T() uint64 {
	return p.t
}

// Beta returns the spread of the error distribution.
func (p Parameters) Beta() float64 {
	return p.beta
}

// NumTerms returns the truncation depth of the periodization sum.
func (p Parameters) NumTerms() int {
	return p.numTerms
}

// ParametersLiteral returns the ParametersLiteral of the target Parameters.
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		N:        p.n,
		M:        p.m,
		L:        p.l,
		Q:        p.q,
		T:        p.t,
		Beta:     p.beta,
		NumTerms: p.numTerms,
	}
}

// Equal returns true if the receiver and other are the same set of parameters.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// MarshalJSON returns a JSON representation of this parameter set.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter.
// See `Unmarshal` from the `encoding/json` package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = json.Unmarshal(data, &pl); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}
