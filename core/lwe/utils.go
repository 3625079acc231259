package lwe

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/zeebo/blake3"
)

// KeySize is the size in bytes of the PRNG keys returned by DeriveKey.
const KeySize = 32

// DeriveKey derives a PRNG key from seed, domain-separated by label.
func DeriveKey(seed []byte, label string) []byte {
	hasher := blake3.New()
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.BigEndian, uint64(len(label)))
	buf.WriteString(label)
	buf.Write(seed)

	hasher.Write(buf.Bytes())
	key := hasher.Sum(nil)
	return key[:KeySize]
}

// Center maps the residue k mod q to the centered range (-q/2, q/2].
func Center(k, q uint64) int64 {
	k %= q
	if k > q/2 {
		return -int64(q - k)
	}
	return int64(k)
}

// Summary gathers the empirical statistics of a set of centered samples.
type Summary struct {
	Count             int
	Mean              float64
	StandardDeviation float64
	Median            float64
	Min               float64
	Max               float64
}

// Summarize returns the statistics of the samples, taken in the centered range (-q/2, q/2].
func Summarize(samples []uint64, q uint64) (s Summary, err error) {

	data := make(stats.Float64Data, len(samples))
	for i, v := range samples {
		data[i] = float64(Center(v, q))
	}

	s.Count = len(samples)

	if s.Mean, err = stats.Mean(data); err != nil {
		return
	}
	if s.StandardDeviation, err = stats.StandardDeviation(data); err != nil {
		return
	}
	if s.Median, err = stats.Median(data); err != nil {
		return
	}
	if s.Min, err = stats.Min(data); err != nil {
		return
	}
	s.Max, err = stats.Max(data)

	return
}

// Frequencies returns the empirical frequency of each residue of Z_q among the samples.
func Frequencies(samples []uint64, q uint64) (freq []float64) {
	freq = make([]float64, q)
	if len(samples) == 0 {
		return
	}
	w := 1 / float64(len(samples))
	for _, v := range samples {
		freq[v%q] += w
	}
	return
}

// TotalVariation returns the total variation distance 1/2 * sum |p[k] - r[k]|
// between two probability vectors of the same length.
func TotalVariation(p, r []float64) (tv float64) {
	for k := range p {
		tv += math.Abs(p[k] - r[k])
	}
	return tv / 2
}
