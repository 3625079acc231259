package lwe

import (
	"golang.org/x/exp/constraints"
)

// Decoder maps plaintext-modulus residues back to ciphertext-modulus residues.
type Decoder struct {
	lweParam Parameters
}

// NewDecoder creates a new Decoder for the moduli q and t of lweParam.
func NewDecoder(lweParam Parameters) *Decoder {
	return &Decoder{lweParam: lweParam}
}

// Decode returns round(a * q / t) mod q for each a of v, see Decode.
func (dec *Decoder) Decode(v []uint64) ([]uint64, error) {
	return Decode(v, dec.lweParam.Q(), dec.lweParam.T())
}

// Decode maps each component a of v, taken mod t in [0, t), to round(a * q / t) mod q.
// Decode(Encode(x)) is only within q/(2t) of x (cyclically mod q), not equal to x.
func Decode[T constraints.Integer](v []T, q, t uint64) ([]uint64, error) {
	return rescale(v, t, q)
}
