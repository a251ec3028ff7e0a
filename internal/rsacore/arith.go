// Package rsacore は64ビット整数領域上の教育用RSAエンジンを提供する。
//
// 素数生成・鍵ペア導出・署名/復元のすべてを純粋関数として実装する。
// 乱数源は Rand として明示的に受け取り、パッケージ内に可変な状態は持たない。
package rsacore

import "math/bits"

// mulMod は a*b mod m を128ビットの中間値で計算する。
// m は0であってはならない。
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

// ModPow は base^exponent mod modulus を二進法（square-and-multiply）で計算する。
// modulus が1なら0、exponent が0なら 1 mod modulus を返す。
// modulus に0を渡した場合はゼロ除算と同様に panic する。
func ModPow(base, exponent, modulus uint64) uint64 {
	if modulus == 1 {
		return 0
	}

	result := uint64(1)
	b := base % modulus
	for exp := exponent; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			result = mulMod(result, b, modulus)
		}
		b = mulMod(b, b, modulus)
	}
	return result
}

// GCD はユークリッドの互除法で最大公約数を返す。GCD(0, 0) は0。
func GCD(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// AreCoprime は a と b が互いに素かどうかを返す。
func AreCoprime(a, b uint64) bool {
	return GCD(a, b) == 1
}
