package lwe

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/ring"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"
	"github.com/tuneinsight/lattigo/v5/utils/structs"
)

// GenerateA returns an n x m matrix with entries uniform and independent in [0, q).
func GenerateA(prng sampling.PRNG, n, m int, q uint64) (structs.Matrix[uint64], error) {
	return genUniform(prng, n, m, q)
}

// GenerateS returns the n x l secret matrix with entries uniform and independent in [0, q).
func GenerateS(prng sampling.PRNG, n, l int, q uint64) (structs.Matrix[uint64], error) {
	return genUniform(prng, n, l, q)
}

// GenerateE returns an m x l matrix whose entries are independent draws from
// the DiscreteGaussian(beta, q, numTerms). The distribution is built once for all draws.
func GenerateE(prng sampling.PRNG, m, l int, beta float64, q uint64, numTerms int) (structs.Matrix[uint64], error) {

	if m < 1 || l < 1 {
		return nil, fmt.Errorf("%w: dimensions must be positive but are %dx%d", ErrInvalidParameter, m, l)
	}

	dist, err := NewDiscreteGaussian(beta, q, numTerms)
	if err != nil {
		return nil, err
	}

	return genError(NewErrorGenerator(dist, prng), m, l)
}

func genError(errGen *ErrGen, m, l int) (E structs.Matrix[uint64], err error) {
	E = NewMatrix(m, l)
	for i := range E {
		if err = errGen.Read(E[i]); err != nil {
			return nil, err
		}
	}
	return
}

func genUniform(prng sampling.PRNG, rows, cols int, q uint64) (structs.Matrix[uint64], error) {

	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: dimensions must be positive but are %dx%d", ErrInvalidParameter, rows, cols)
	}

	if q < 1 {
		return nil, fmt.Errorf("%w: q must be positive", ErrInvalidParameter)
	}

	// mask = 2^bitlen(q-1) - 1
	mask := uint64(1)<<bits.Len64(q-1) - 1

	M := NewMatrix(rows, cols)
	for i := range M {
		for j := range M[i] {
			M[i][j] = ring.RandUniform(prng, q, mask)
		}
	}

	return M, nil
}

// ComputePublicKey returns (A^t * S + E) mod q, with A n x m, S n x l and E m x l.
// The result is m x l with entries in [0, q). Incompatible or ragged shapes
// return an error wrapping ErrDimensionMismatch.
func ComputePublicKey(A, S, E structs.Matrix[uint64], q uint64) (P structs.Matrix[uint64], err error) {

	if q < 1 {
		return nil, fmt.Errorf("%w: q must be positive", ErrInvalidParameter)
	}

	n, m, okA := dims(A)
	nS, l, okS := dims(S)
	mE, lE, okE := dims(E)

	switch {
	case !okA || !okS || !okE:
		return nil, fmt.Errorf("%w: ragged matrix", ErrDimensionMismatch)
	case n == 0 || m == 0 || l == 0:
		return nil, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	case nS != n:
		return nil, fmt.Errorf("%w: A has %d rows but S has %d", ErrDimensionMismatch, n, nS)
	case mE != m || lE != l:
		return nil, fmt.Errorf("%w: E is %dx%d but A^t*S is %dx%d", ErrDimensionMismatch, mE, lE, m, l)
	}

	P = NewMatrix(m, l)

	for i := 0; i < m; i++ {
		for j := 0; j < l; j++ {
			acc := E[i][j] % q
			for k := 0; k < n; k++ {
				acc = addMod(acc, mulMod(A[k][i]%q, S[k][j]%q, q), q)
			}
			P[i][j] = acc
		}
	}

	return
}

// mulMod returns a*b mod q.
func mulMod(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, q)
}

// addMod returns a+b mod q for a, b in [0, q).
func addMod(a, b, q uint64) uint64 {
	s := a + b
	if s < a || s >= q {
		s -= q
	}
	return s
}

// KeyGenerator generates LWE key pairs for a fixed set of Parameters.
// The error distribution is computed once, at creation.
type KeyGenerator struct {
	params Parameters
	prngA  sampling.PRNG
	prngS  sampling.PRNG
	errGen *ErrGen
}

// NewKeyGenerator creates a new KeyGenerator reading all its randomness from prng.
func NewKeyGenerator(params Parameters, prng sampling.PRNG) (*KeyGenerator, error) {
	return newKeyGenerator(params, prng, prng, prng)
}

// NewKeyGeneratorFromSeed creates a new KeyGenerator whose matrices A, S and E are
// expanded from independent keyed PRNGs derived from seed.
// The matrix A can thus be re-expanded from the seed without knowledge of S or E.
func NewKeyGeneratorFromSeed(params Parameters, seed []byte) (*KeyGenerator, error) {

	prngs := make([]sampling.PRNG, 3)
	for i, label := range []string{"A", "S", "E"} {
		prng, err := sampling.NewKeyedPRNG(DeriveKey(seed, label))
		if err != nil {
			return nil, err
		}
		prngs[i] = prng
	}

	return newKeyGenerator(params, prngs[0], prngs[1], prngs[2])
}

func newKeyGenerator(params Parameters, prngA, prngS, prngE sampling.PRNG) (*KeyGenerator, error) {

	dist, err := NewDiscreteGaussian(params.Beta(), params.Q(), params.NumTerms())
	if err != nil {
		return nil, err
	}

	return &KeyGenerator{
		params: params,
		prngA:  prngA,
		prngS:  prngS,
		errGen: NewErrorGenerator(dist, prngE),
	}, nil
}

// Parameters returns the parameters of the KeyGenerator.
func (kgen KeyGenerator) Parameters() Parameters {
	return kgen.params
}

// Distribution returns the error distribution of the KeyGenerator.
func (kgen KeyGenerator) Distribution() *DiscreteGaussian {
	return kgen.errGen.Distribution()
}

// GenPublicMatrixNew generates a new uniform n x m matrix A.
func (kgen KeyGenerator) GenPublicMatrixNew() (structs.Matrix[uint64], error) {
	return GenerateA(kgen.prngA, kgen.params.N(), kgen.params.M(), kgen.params.Q())
}

// GenSecretKeyNew generates a new secret key.
func (kgen KeyGenerator) GenSecretKeyNew() (sk *SecretKey, err error) {
	var S structs.Matrix[uint64]
	if S, err = GenerateS(kgen.prngS, kgen.params.N(), kgen.params.L(), kgen.params.Q()); err != nil {
		return
	}
	return &SecretKey{S: S}, nil
}

// GenErrorMatrixNew generates a new m x l error matrix.
func (kgen KeyGenerator) GenErrorMatrixNew() (structs.Matrix[uint64], error) {
	return genError(kgen.errGen, kgen.params.M(), kgen.params.L())
}

// GenPublicKeyNew generates a fresh error matrix E and returns the public key (A, (A^t * S + E) mod q).
func (kgen KeyGenerator) GenPublicKeyNew(A structs.Matrix[uint64], sk *SecretKey) (pk *PublicKey, err error) {

	var E, P structs.Matrix[uint64]
	if E, err = kgen.GenErrorMatrixNew(); err != nil {
		return
	}

	if P, err = ComputePublicKey(A, sk.S, E, kgen.params.Q()); err != nil {
		return
	}

	return &PublicKey{A: A, P: P}, nil
}

// GenKeyPairNew generates a new public matrix, secret key and public key.
// No key material is returned on failure.
func (kgen KeyGenerator) GenKeyPairNew() (pk *PublicKey, sk *SecretKey, err error) {

	var A structs.Matrix[uint64]
	if A, err = kgen.GenPublicMatrixNew(); err != nil {
		return nil, nil, err
	}

	if sk, err = kgen.GenSecretKeyNew(); err != nil {
		return nil, nil, err
	}

	if pk, err = kgen.GenPublicKeyNew(A, sk); err != nil {
		return nil, nil, err
	}

	return
}

// GenerateKeyPair generates A (n x m), S (n x l) and P = (A^t * S + E) mod q (m x l),
// with E sampled from the DiscreteGaussian(beta, q, numTerms).
func GenerateKeyPair(prng sampling.PRNG, n, m, l int, q uint64, beta float64, numTerms int) (A, S, P structs.Matrix[uint64], err error) {

	if numTerms < 1 {
		return nil, nil, nil, fmt.Errorf("%w: num_terms must be positive but is %d", ErrInvalidParameter, numTerms)
	}

	var params Parameters
	if params, err = NewParametersFromLiteral(ParametersLiteral{N: n, M: m, L: l, Q: q, Beta: beta, NumTerms: numTerms}); err != nil {
		return
	}

	var kgen *KeyGenerator
	if kgen, err = NewKeyGenerator(params, prng); err != nil {
		return
	}

	pk, sk, err := kgen.GenKeyPairNew()
	if err != nil {
		return nil, nil, nil, err
	}

	return pk.A, sk.S, pk.P, nil
}
