package rsacore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// modInverseSearch は [1, phi) を先頭から総当たりする参照実装。
func modInverseSearch(e, phi uint64) (uint64, bool) {
	for d := uint64(1); d < phi; d++ {
		if mulMod(e, d, phi) == 1 {
			return d, true
		}
	}
	return 0, false
}

func TestModInverse(t *testing.T) {
	d, ok := ModInverse(7, 40)
	assert.True(t, ok)
	assert.Equal(t, uint64(23), d)

	d, ok = ModInverse(3, 10)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), d)

	_, ok = ModInverse(2, 4)
	assert.False(t, ok)
}

func TestModInverse_DegenerateModulus(t *testing.T) {
	for _, e := range []uint64{0, 1, 2, 17} {
		_, ok := ModInverse(e, 0)
		assert.False(t, ok)
		_, ok = ModInverse(e, 1)
		assert.False(t, ok)
	}
}

func TestModInverse_MatchesExhaustiveSearch(t *testing.T) {
	for phi := uint64(0); phi <= 300; phi++ {
		for e := uint64(0); e <= 320; e++ {
			got, gotOK := ModInverse(e, phi)
			want, wantOK := modInverseSearch(e, phi)
			if got != want || gotOK != wantOK {
				t.Fatalf("ModInverse(%d, %d) = (%d, %v), want (%d, %v)", e, phi, got, gotOK, want, wantOK)
			}
		}
	}
}

func TestModInverse_LargeTotient(t *testing.T) {
	phi := uint64(math.MaxUint64 - 58) // 2^64-59 は素数
	for _, e := range []uint64{3, 65537, phi - 1, 1 << 40} {
		d, ok := ModInverse(e, phi)
		assert.True(t, ok, "e=%d", e)
		assert.Equal(t, uint64(1), mulMod(e, d, phi), "e=%d", e)
		assert.Less(t, d, phi)
	}

	_, ok := ModInverse(6, 1<<40)
	assert.False(t, ok)
}
