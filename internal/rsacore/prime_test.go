package rsacore

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand は決められた値を順に返し、尽きたら最後の値を返し続ける乱数源。
type scriptedRand struct {
	values []uint64
	calls  int
}

func (s *scriptedRand) Uint64N(n uint64) uint64 {
	v := s.values[min(s.calls, len(s.values)-1)]
	s.calls++
	return v % n
}

func isPrimeByTrialDivision(n uint64) bool {
	if n < 2 {
		return false
	}
	for d := uint64(2); d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func TestIsProbablyPrime(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 997, 1009, 104729}
	for _, p := range primes {
		assert.True(t, IsProbablyPrime(p), "%d should be prime", p)
	}

	composites := []uint64{0, 1, 4, 6, 8, 9, 10, 12, 14, 15, 16, 1000, 1001, 104728}
	for _, c := range composites {
		assert.False(t, IsProbablyPrime(c), "%d should not be prime", c)
	}
}

func TestIsProbablyPrime_AgreesWithTrialDivision(t *testing.T) {
	for n := uint64(0); n < 10000; n++ {
		if got, want := IsProbablyPrime(n), isPrimeByTrialDivision(n); got != want {
			t.Fatalf("IsProbablyPrime(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestIsProbablyPrime_CarmichaelLimitation(t *testing.T) {
	// 29341 = 13 * 37 * 61 はすべての証人と互いに素なカーマイケル数
	assert.False(t, isPrimeByTrialDivision(29341))
	assert.True(t, IsProbablyPrime(29341))

	// 証人で割り切れるカーマイケル数は検出できる
	assert.False(t, IsProbablyPrime(561))
	assert.False(t, IsProbablyPrime(1105))
}

func TestIsProbablyPrime_LargePrimes(t *testing.T) {
	assert.True(t, IsProbablyPrime(1<<61-1))
	assert.True(t, IsProbablyPrime(1<<31-1))
	assert.False(t, IsProbablyPrime((1<<31-1)*(1<<31-1)))
}

func TestGenerateRandomPrime_BoundTooSmall(t *testing.T) {
	r := &scriptedRand{values: []uint64{0}}

	for _, n := range []uint64{0, 1} {
		_, err := GenerateRandomPrime(r, n)
		assert.ErrorIs(t, err, ErrBoundTooSmall)
	}
	assert.Zero(t, r.calls)
}

func TestGenerateRandomPrime_WithinBound(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		p, err := GenerateRandomPrime(r, 30)
		require.NoError(t, err)
		assert.LessOrEqual(t, p, uint64(30))
		assert.GreaterOrEqual(t, p, uint64(2))
		assert.True(t, IsProbablyPrime(p))
	}

	p, err := GenerateRandomPrime(DefaultRand, 20000000000)
	require.NoError(t, err)
	assert.LessOrEqual(t, p, uint64(20000000000))
	assert.True(t, IsProbablyPrime(p))
}

func TestGenerateRandomPrime_SmallestBound(t *testing.T) {
	p, err := GenerateRandomPrime(DefaultRand, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p)
}

func TestGenerateRandomPrime_Exhausted(t *testing.T) {
	// 候補は常に 2+2 = 4
	r := &scriptedRand{values: []uint64{2}}

	_, err := GenerateRandomPrime(r, 100)
	assert.ErrorIs(t, err, ErrPrimeNotFound)
	assert.Equal(t, MaxPrimeAttempts, r.calls)
}

func TestGenerateRandomPrime_FirstProbablePrimeWins(t *testing.T) {
	// 候補 4, 6, 9, 11 の順
	r := &scriptedRand{values: []uint64{2, 4, 7, 9}}

	p, err := GenerateRandomPrime(r, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), p)
	assert.Equal(t, 4, r.calls)
}
