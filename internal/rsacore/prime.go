package rsacore

import "math/rand/v2"

// MaxPrimeAttempts は素数探索1回あたりの候補抽出の上限。
const MaxPrimeAttempts = 1000

// witnesses はフェルマーテストに用いる固定の証人。
var witnesses = [...]uint64{2, 3, 5, 7}

// Rand は区間 [0, n) の一様乱数を返す乱数源。
// *rand.Rand（math/rand/v2）はこのインターフェースを満たす。
type Rand interface {
	Uint64N(n uint64) uint64
}

type defaultRand struct{}

func (defaultRand) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

// DefaultRand は math/rand/v2 のグローバル生成器を使う乱数源。並行利用してよい。
var DefaultRand Rand = defaultRand{}

// IsProbablyPrime は証人 {2, 3, 5, 7} によるフェルマーテストの結果を返す。
// p 以上の証人は飛ばすため、7以下の素数は自明に合格する。
// 全証人と互いに素なカーマイケル数（29341 など）は素数と判定される。
func IsProbablyPrime(p uint64) bool {
	if p < 2 {
		return false
	}
	for _, w := range witnesses {
		if w >= p {
			continue
		}
		if ModPow(w, p-1, p) != 1 {
			return false
		}
	}
	return true
}

// GenerateRandomPrime は [2, n] から一様に候補を抽出し、最初に見つかった確率的素数を返す。
// n < 2 なら ErrBoundTooSmall、MaxPrimeAttempts 回で見つからなければ ErrPrimeNotFound。
func GenerateRandomPrime(r Rand, n uint64) (uint64, error) {
	if n < 2 {
		return 0, ErrBoundTooSmall
	}
	for range MaxPrimeAttempts {
		candidate := 2 + r.Uint64N(n-1)
		if IsProbablyPrime(candidate) {
			return candidate, nil
		}
	}
	return 0, ErrPrimeNotFound
}
