package lwe

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

// randomBufferSize is the number of random bytes read from the PRNG at once.
const randomBufferSize = 1024

// ErrGen is a categorical sampler drawing residues of Z_q according to a DiscreteGaussian.
// Draws are independent, with replacement, and the only state besides the
// probability table is the PRNG: an ErrGen seeded with a keyed PRNG is deterministic.
// An ErrGen must not be used concurrently, use WithPRNG to obtain independent instances.
type ErrGen struct {
	dist *DiscreteGaussian
	prng sampling.PRNG
	buff []byte
	ptr  int
}

// NewErrorGenerator creates a new ErrGen sampling from dist with randomness read from prng.
func NewErrorGenerator(dist *DiscreteGaussian, prng sampling.PRNG) *ErrGen {
	return &ErrGen{
		dist: dist,
		prng: prng,
		buff: make([]byte, randomBufferSize),
		ptr:  randomBufferSize,
	}
}

// WithPRNG returns a new ErrGen sharing the distribution of the receiver
// and reading its randomness from prng.
func (erg *ErrGen) WithPRNG(prng sampling.PRNG) *ErrGen {
	return NewErrorGenerator(erg.dist, prng)
}

// Distribution returns the distribution of the sampler.
func (erg *ErrGen) Distribution() *DiscreteGaussian {
	return erg.dist
}

// GenErr draws a single residue in [0, q).
func (erg *ErrGen) GenErr() (uint64, error) {

	u, err := erg.uniform()
	if err != nil {
		return 0, err
	}

	cdf := erg.dist.cdf

	// first residue k with cdf[k] > u, residues of zero probability are never selected.
	k := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })

	return uint64(k), nil
}

// Read fills out with independent draws.
func (erg *ErrGen) Read(out []uint64) (err error) {
	for i := range out {
		if out[i], err = erg.GenErr(); err != nil {
			return
		}
	}
	return
}

// ReadNew returns n independent draws.
func (erg *ErrGen) ReadNew(n int) (samples []uint64, err error) {

	if n < 0 {
		return nil, fmt.Errorf("%w: sample count must be non-negative but is %d", ErrInvalidParameter, n)
	}

	samples = make([]uint64, n)
	if err = erg.Read(samples); err != nil {
		return nil, err
	}

	return
}

// uniform returns a float64 uniformly distributed in [0, 1) with 53 bits of randomness.
func (erg *ErrGen) uniform() (float64, error) {

	if erg.ptr+8 > len(erg.buff) {
		if _, err := io.ReadFull(erg.prng, erg.buff); err != nil {
			return 0, fmt.Errorf("lwe: reading randomness: %w", err)
		}
		erg.ptr = 0
	}

	r := binary.BigEndian.Uint64(erg.buff[erg.ptr : erg.ptr+8])
	erg.ptr += 8

	return float64(r>>11) * 0x1p-53, nil
}

// SampleErrors draws count independent residues from the DiscreteGaussian(beta, q, numTerms).
func SampleErrors(prng sampling.PRNG, beta float64, q uint64, count, numTerms int) ([]uint64, error) {

	dist, err := NewDiscreteGaussian(beta, q, numTerms)
	if err != nil {
		return nil, err
	}

	return NewErrorGenerator(dist, prng).ReadNew(count)
}
