// Package lwe implements the primitives of an LWE-based encryption scheme: the periodized
// discrete Gaussian error distribution over Z_q, the generation of the public matrix A, the
// secret matrix S and the public key P = (A^t * S + E) mod q, and the rounding maps between
// the plaintext modulus t and the ciphertext modulus q.
//
// All the randomized operations take an explicit sampling.PRNG. A PRNG created with
// sampling.NewKeyedPRNG is deterministic for a given key, one created with sampling.NewPRNG is not.
package lwe

import (
	"github.com/tuneinsight/lattigo/v5/utils/structs"
)

// PublicKey is the public part of an LWE key pair: the uniform matrix A (n x m)
// and P = (A^t * S + E) mod q (m x l).
type PublicKey struct {
	A structs.Matrix[uint64]
	P structs.Matrix[uint64]
}

// SecretKey is the uniform secret matrix S (n x l).
type SecretKey struct {
	S structs.Matrix[uint64]
}

// NewMatrix allocates a rows x cols zero matrix.
func NewMatrix(rows, cols int) (m structs.Matrix[uint64]) {
	m = make(structs.Matrix[uint64], rows)
	for i := range m {
		m[i] = make([]uint64, cols)
	}
	return
}

// dims returns the number of rows and columns of m and false if m is ragged.
func dims(m structs.Matrix[uint64]) (rows, cols int, ok bool) {
	rows = len(m)
	if rows == 0 {
		return 0, 0, true
	}
	cols = len(m[0])
	for i := range m {
		if len(m[i]) != cols {
			return rows, cols, false
		}
	}
	return rows, cols, true
}
