package lwe

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"
	"github.com/tuneinsight/lattigo/v5/utils/structs"
)

var testParamsLiteral = ParametersLiteral{
	N:        4,
	M:        6,
	L:        3,
	Q:        97,
	T:        8,
	Beta:     0.05,
	NumTerms: 10,
}

func requireInRange(t *testing.T, M structs.Matrix[uint64], rows, cols int, q uint64) {
	require.Len(t, M, rows)
	for i := range M {
		require.Len(t, M[i], cols)
		for _, v := range M[i] {
			require.Less(t, v, q)
		}
	}
}

func TestParameters(t *testing.T) {

	t.Run("Literal", func(t *testing.T) {
		params, err := NewParametersFromLiteral(testParamsLiteral)
		require.NoError(t, err)
		require.Equal(t, 4, params.N())
		require.Equal(t, 6, params.M())
		require.Equal(t, 3, params.L())
		require.Equal(t, uint64(97), params.Q())
		require.Equal(t, uint64(8), params.T())
		require.Equal(t, 0.05, params.Beta())
		require.Equal(t, 10, params.NumTerms())
		require.Equal(t, testParamsLiteral, params.ParametersLiteral())
	})

	t.Run("DefaultNumTerms", func(t *testing.T) {
		pl := testParamsLiteral
		pl.NumTerms = 0
		params, err := NewParametersFromLiteral(pl)
		require.NoError(t, err)
		require.Equal(t, DefaultNumTerms, params.NumTerms())
	})

	t.Run("Invalid", func(t *testing.T) {
		for name, mutate := range map[string]func(pl *ParametersLiteral){
			"N":        func(pl *ParametersLiteral) { pl.N = 0 },
			"M":        func(pl *ParametersLiteral) { pl.M = -1 },
			"L":        func(pl *ParametersLiteral) { pl.L = 0 },
			"Q":        func(pl *ParametersLiteral) { pl.Q = 0 },
			"T":        func(pl *ParametersLiteral) { pl.T = 97 },
			"Beta":     func(pl *ParametersLiteral) { pl.Beta = 0 },
			"NumTerms": func(pl *ParametersLiteral) { pl.NumTerms = -3 },
		} {
			pl := testParamsLiteral
			mutate(&pl)
			_, err := NewParametersFromLiteral(pl)
			require.ErrorIs(t, err, ErrInvalidParameter, name)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		params, err := NewParametersFromLiteral(testParamsLiteral)
		require.NoError(t, err)

		data, err := json.Marshal(params)
		require.NoError(t, err)

		var paramsNew Parameters
		require.NoError(t, json.Unmarshal(data, &paramsNew))
		require.True(t, params.Equal(&paramsNew))
		require.Empty(t, cmp.Diff(params.ParametersLiteral(), paramsNew.ParametersLiteral()))

		require.Error(t, json.Unmarshal([]byte(`{"n":4,"m":6,"l":3,"q":97,"beta":-1}`), &paramsNew))
	})
}

func TestKeyGeneration(t *testing.T) {

	t.Run("GenerateA", func(t *testing.T) {
		A, err := GenerateA(newTestPRNG(t, testKey), 4, 6, 97)
		require.NoError(t, err)
		requireInRange(t, A, 4, 6, 97)
	})

	t.Run("GenerateS", func(t *testing.T) {
		S, err := GenerateS(newTestPRNG(t, testKey), 5, 2, 1<<40)
		require.NoError(t, err)
		requireInRange(t, S, 5, 2, 1<<40)
	})

	t.Run("GenerateE", func(t *testing.T) {
		E, err := GenerateE(newTestPRNG(t, testKey), 6, 3, 0.05, 97, 10)
		require.NoError(t, err)
		requireInRange(t, E, 6, 3, 97)
		for i := range E {
			for _, e := range E[i] {
				require.LessOrEqual(t, abs(Center(e, 97)), int64(15))
			}
		}
	})

	t.Run("InvalidDimensions", func(t *testing.T) {
		prng := newTestPRNG(t, testKey)
		_, err := GenerateA(prng, 0, 6, 97)
		require.ErrorIs(t, err, ErrInvalidParameter)
		_, err = GenerateS(prng, 4, -1, 97)
		require.ErrorIs(t, err, ErrInvalidParameter)
		_, err = GenerateA(prng, 4, 6, 0)
		require.ErrorIs(t, err, ErrInvalidParameter)
		_, err = GenerateE(prng, 0, 3, 0.5, 97, 10)
		require.ErrorIs(t, err, ErrInvalidParameter)
		_, err = GenerateE(prng, 6, 3, 0, 97, 10)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("ComputePublicKey/Shape", func(t *testing.T) {
		prng := newTestPRNG(t, testKey)
		A, err := GenerateA(prng, 4, 6, 97)
		require.NoError(t, err)
		S, err := GenerateS(prng, 4, 3, 97)
		require.NoError(t, err)
		E, err := GenerateE(prng, 6, 3, 0.05, 97, 10)
		require.NoError(t, err)
		P, err := ComputePublicKey(A, S, E, 97)
		require.NoError(t, err)
		requireInRange(t, P, 6, 3, 97)
	})

	t.Run("ComputePublicKey/Value", func(t *testing.T) {
		A := structs.Matrix[uint64]{{1, 2}, {3, 4}}
		S := structs.Matrix[uint64]{{5}, {6}}
		E := structs.Matrix[uint64]{{1}, {0}}
		// A^t * S = [[23], [34]]
		P, err := ComputePublicKey(A, S, E, 7)
		require.NoError(t, err)
		require.Equal(t, structs.Matrix[uint64]{{3}, {6}}, P)
	})

	t.Run("ComputePublicKey/Mismatch", func(t *testing.T) {
		A := NewMatrix(4, 6)
		for _, tc := range []struct {
			name string
			S, E structs.Matrix[uint64]
		}{
			{"S/Rows", NewMatrix(5, 3), NewMatrix(6, 3)},
			{"E/Rows", NewMatrix(4, 3), NewMatrix(4, 3)},
			{"E/Cols", NewMatrix(4, 3), NewMatrix(6, 2)},
			{"S/Ragged", structs.Matrix[uint64]{{0, 0, 0}, {0, 0}, {0, 0, 0}, {0, 0, 0}}, NewMatrix(6, 3)},
			{"S/Empty", structs.Matrix[uint64]{}, NewMatrix(6, 3)},
		} {
			_, err := ComputePublicKey(A, tc.S, tc.E, 97)
			require.ErrorIs(t, err, ErrDimensionMismatch, tc.name)
		}
	})

	t.Run("ComputePublicKey/LargeModulus", func(t *testing.T) {
		q := uint64(0xffffffffffffffc5) // 2^64 - 59
		A := structs.Matrix[uint64]{{q - 1}, {q - 1}}
		S := structs.Matrix[uint64]{{q - 1}, {q - 1}}
		E := structs.Matrix[uint64]{{q - 1}}
		// 2 * (q-1)^2 + (q-1) = 2 - 1 = 1 mod q
		P, err := ComputePublicKey(A, S, E, q)
		require.NoError(t, err)
		require.Equal(t, uint64(1), P[0][0])
	})

	t.Run("SingleResidue", func(t *testing.T) {
		prng := newTestPRNG(t, testKey)
		A, err := GenerateA(prng, 4, 6, 1)
		require.NoError(t, err)
		S, err := GenerateS(prng, 4, 3, 1)
		require.NoError(t, err)
		E, err := GenerateE(prng, 6, 3, 0.5, 1, 5)
		require.NoError(t, err)
		P, err := ComputePublicKey(A, S, E, 1)
		require.NoError(t, err)
		require.Equal(t, NewMatrix(4, 6), A)
		require.Equal(t, NewMatrix(4, 3), S)
		require.Equal(t, NewMatrix(6, 3), P)
	})
}

func TestKeyGenerator(t *testing.T) {

	params, err := NewParametersFromLiteral(testParamsLiteral)
	require.NoError(t, err)

	t.Run("GenKeyPairNew", func(t *testing.T) {
		kgen, err := NewKeyGenerator(params, newTestPRNG(t, testKey))
		require.NoError(t, err)

		pk, sk, err := kgen.GenKeyPairNew()
		require.NoError(t, err)
		requireInRange(t, pk.A, 4, 6, 97)
		requireInRange(t, sk.S, 4, 3, 97)
		requireInRange(t, pk.P, 6, 3, 97)

		// P - A^t * S is the error matrix, small in the centered representation.
		zero := NewMatrix(6, 3)
		AS, err := ComputePublicKey(pk.A, sk.S, zero, params.Q())
		require.NoError(t, err)
		for i := range pk.P {
			for j := range pk.P[i] {
				e := (pk.P[i][j] + params.Q() - AS[i][j]) % params.Q()
				require.LessOrEqual(t, abs(Center(e, params.Q())), int64(15))
			}
		}
	})

	t.Run("FromSeed", func(t *testing.T) {
		seed := []byte("lwe key generation seed")

		kgen0, err := NewKeyGeneratorFromSeed(params, seed)
		require.NoError(t, err)
		kgen1, err := NewKeyGeneratorFromSeed(params, seed)
		require.NoError(t, err)

		pk0, sk0, err := kgen0.GenKeyPairNew()
		require.NoError(t, err)
		pk1, sk1, err := kgen1.GenKeyPairNew()
		require.NoError(t, err)

		require.Equal(t, pk0, pk1)
		require.Equal(t, sk0, sk1)

		prngA, err := sampling.NewKeyedPRNG(DeriveKey(seed, "A"))
		require.NoError(t, err)
		A, err := GenerateA(prngA, params.N(), params.M(), params.Q())
		require.NoError(t, err)
		require.Equal(t, A, pk0.A)
	})

	t.Run("DeriveKey", func(t *testing.T) {
		seed := []byte("seed")
		require.Len(t, DeriveKey(seed, "A"), KeySize)
		require.Equal(t, DeriveKey(seed, "A"), DeriveKey(seed, "A"))
		require.NotEqual(t, DeriveKey(seed, "A"), DeriveKey(seed, "S"))
		require.NotEqual(t, DeriveKey(seed, "A"), DeriveKey([]byte("other"), "A"))
	})

	t.Run("GenerateKeyPair", func(t *testing.T) {
		A, S, P, err := GenerateKeyPair(newTestPRNG(t, testKey), 4, 6, 3, 97, 0.05, 10)
		require.NoError(t, err)
		requireInRange(t, A, 4, 6, 97)
		requireInRange(t, S, 4, 3, 97)
		requireInRange(t, P, 6, 3, 97)

		A, S, P, err = GenerateKeyPair(newTestPRNG(t, testKey), 4, 6, 3, 97, -1, 10)
		require.ErrorIs(t, err, ErrInvalidParameter)
		require.Nil(t, A)
		require.Nil(t, S)
		require.Nil(t, P)

		_, _, _, err = GenerateKeyPair(newTestPRNG(t, testKey), 4, 6, 3, 97, 0.05, 0)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("GenerateKeyPair/DistributionFailure", func(t *testing.T) {
		for _, tc := range []struct {
			name  string
			q     uint64
			beta  float64
			limit int
			err   error
		}{
			{"UnderflowingBeta", 97, 1e-200, 50, ErrInvalidParameter},
			{"NotConverged", 2, 0.05, 1, ErrNumerical},
			{"DegenerateMass", 3, 1e-9, 50, ErrInvalidDistribution},
		} {
			t.Run(tc.name, func(t *testing.T) {
				withDensityLimit(t, tc.limit)

				A, S, P, err := GenerateKeyPair(newTestPRNG(t, testKey), 2, 2, 2, tc.q, tc.beta, 3)
				require.ErrorIs(t, err, tc.err)
				require.Nil(t, A)
				require.Nil(t, S)
				require.Nil(t, P)

				E, err := GenerateE(newTestPRNG(t, testKey), 2, 2, tc.beta, tc.q, 3)
				require.ErrorIs(t, err, tc.err)
				require.Nil(t, E)
			})
		}
	})
}

func TestModulusRounding(t *testing.T) {

	var q, tMod uint64 = 97, 8

	t.Run("Encode", func(t *testing.T) {
		out, err := Encode([]uint64{0, 6, 7, 48, 49, 96}, q, tMod)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 0, 1, 4, 4, 0}, out)
	})

	t.Run("Encode/Signed", func(t *testing.T) {
		out, err := Encode([]int64{-1, 102, -97}, q, tMod)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 0, 0}, out)

		out, err = Encode([]int8{-49}, q, tMod)
		require.NoError(t, err)
		require.Equal(t, []uint64{4}, out)
	})

	t.Run("Decode", func(t *testing.T) {
		out, err := Decode([]uint64{0, 1, 4, 7, 8}, q, tMod)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 12, 49, 85, 0}, out)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		x := make([]uint64, q)
		for i := range x {
			x[i] = uint64(i)
		}

		encoded, err := Encode(x, q, tMod)
		require.NoError(t, err)
		for _, v := range encoded {
			require.Less(t, v, tMod)
		}

		decoded, err := Decode(encoded, q, tMod)
		require.NoError(t, err)

		bound := float64(q) / float64(2*tMod)
		for i := range x {
			d := (decoded[i] + q - x[i]) % q
			require.LessOrEqual(t, float64(abs(Center(d, q))), bound, "x=%d", x[i])
		}
	})

	t.Run("Encoder&Decoder", func(t *testing.T) {
		params, err := NewParametersFromLiteral(testParamsLiteral)
		require.NoError(t, err)

		encoded, err := NewEncoder(params).Encode([]uint64{7, 49})
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 4}, encoded)

		decoded, err := NewDecoder(params).Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, []uint64{12, 49}, decoded)
	})

	t.Run("InvalidModuli", func(t *testing.T) {
		_, err := Encode([]uint64{1}, 0, tMod)
		require.ErrorIs(t, err, ErrInvalidParameter)
		_, err = Decode([]uint64{1}, q, 0)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
