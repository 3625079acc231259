package lwe

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v5/utils/bignum"
	"golang.org/x/exp/constraints"
)

// Encoder maps ciphertext-modulus residues to plaintext-modulus residues.
type Encoder struct {
	lweParam Parameters
}

// NewEncoder creates a new Encoder for the moduli q and t of lweParam.
func NewEncoder(lweParam Parameters) *Encoder {
	return &Encoder{lweParam: lweParam}
}

// Encode returns round(a * t / q) mod t for each a of v, see Encode.
func (enc *Encoder) Encode(v []uint64) ([]uint64, error) {
	return Encode(v, enc.lweParam.Q(), enc.lweParam.T())
}

// Encode maps each component a of v, taken mod q in [0, q), to round(a * t / q) mod t.
// Ties are rounded away from zero. The map is lossy when t does not divide q.
func Encode[T constraints.Integer](v []T, q, t uint64) ([]uint64, error) {
	return rescale(v, q, t)
}

// rescale maps each a of v, reduced mod from, to round(a * to / from) mod to.
func rescale[T constraints.Integer](v []T, from, to uint64) (out []uint64, err error) {

	if from == 0 || to == 0 {
		return nil, fmt.Errorf("%w: moduli must be positive but are %d and %d", ErrInvalidParameter, from, to)
	}

	fromBig := bignum.NewInt(from)
	toBig := bignum.NewInt(to)

	out = make([]uint64, len(v))

	tmp := new(big.Int)
	for i, a := range v {
		reduce(a, fromBig, tmp)
		tmp.Mul(tmp, toBig)
		bignum.DivRound(tmp, fromBig, tmp)
		out[i] = tmp.Mod(tmp, toBig).Uint64()
	}

	return
}

// reduce sets res to a mod m in [0, m).
func reduce[T constraints.Integer](a T, m, res *big.Int) {
	var zero T
	if ^zero < zero {
		res.SetInt64(int64(a))
	} else {
		res.SetUint64(uint64(a))
	}
	res.Mod(res, m)
}
