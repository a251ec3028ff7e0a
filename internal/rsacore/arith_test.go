package rsacore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// modPowBrute は x を n 回掛けて m で割った余りを返す。
func modPowBrute(x, n, m uint64) uint64 {
	result := uint64(1) % m
	for range n {
		result = mulMod(result, x, m)
	}
	return result
}

func TestModPow(t *testing.T) {
	assert.Equal(t, uint64(3), ModPow(2, 3, 5))
	assert.Equal(t, uint64(1), ModPow(10, 0, 7))
	assert.Equal(t, uint64(0), ModPow(10, 5, 1))
	assert.Equal(t, uint64(1), ModPow(0, 0, 7))
	assert.Equal(t, uint64(0), ModPow(0, 0, 1))
	assert.Equal(t, modPowBrute(123456789, 12345, 1000000007), ModPow(123456789, 12345, 1000000007))
}

func TestModPow_MatchesRepeatedMultiplication(t *testing.T) {
	for m := uint64(1); m <= 40; m++ {
		for x := uint64(0); x <= 45; x++ {
			for n := uint64(0); n <= 20; n++ {
				if got, want := ModPow(x, n, m), modPowBrute(x, n, m); got != want {
					t.Fatalf("ModPow(%d, %d, %d) = %d, want %d", x, n, m, got, want)
				}
			}
		}
	}
}

func TestModPow_WideIntermediate(t *testing.T) {
	const m = math.MaxUint64

	// 2^64 ≡ 1 (mod 2^64-1)
	assert.Equal(t, uint64(1), ModPow(2, 64, m))
	// (-1)^2 ≡ 1
	assert.Equal(t, uint64(1), ModPow(m-1, 2, m))
	// 法未満に簡約してから計算する
	assert.Equal(t, ModPow(7, 5, 11), ModPow(7+11*3, 5, 11))

	const mersenne61 = 1<<61 - 1
	assert.Equal(t, uint64(1), ModPow(3, mersenne61-1, mersenne61))
	assert.Equal(t, uint64(1), ModPow(mersenne61+3, mersenne61-1, mersenne61))
}

func TestModPow_ZeroExponentAndUnitModulus(t *testing.T) {
	for _, x := range []uint64{0, 1, 2, 99, math.MaxUint64} {
		for _, m := range []uint64{1, 2, 7, 1000, math.MaxUint64} {
			assert.Equal(t, 1%m, ModPow(x, 0, m), "x=%d m=%d", x, m)
		}
		for _, n := range []uint64{0, 1, 5, math.MaxUint64} {
			assert.Equal(t, uint64(0), ModPow(x, n, 1), "x=%d n=%d", x, n)
		}
	}
}

func TestGCD(t *testing.T) {
	assert.Equal(t, uint64(6), GCD(54, 24))
	assert.Equal(t, uint64(6), GCD(48, 18))
	assert.Equal(t, uint64(1), GCD(101, 10))
	assert.Equal(t, uint64(5), GCD(0, 5))
	assert.Equal(t, uint64(5), GCD(5, 0))
	assert.Equal(t, uint64(0), GCD(0, 0))
	assert.Equal(t, uint64(7), GCD(7, 7))
	assert.Equal(t, uint64(100), GCD(100, 100))

	for a := uint64(0); a < 60; a++ {
		for b := uint64(0); b < 60; b++ {
			assert.Equal(t, GCD(a, b), GCD(b, a))
		}
	}
}

func TestAreCoprime(t *testing.T) {
	assert.True(t, AreCoprime(14, 15))
	assert.True(t, AreCoprime(17, 31))
	assert.True(t, AreCoprime(1, 100))
	assert.True(t, AreCoprime(13, 27))

	assert.False(t, AreCoprime(14, 21))
	assert.False(t, AreCoprime(100, 10))
	assert.False(t, AreCoprime(12, 18))
	assert.False(t, AreCoprime(0, 5))
	assert.False(t, AreCoprime(0, 0))
}
