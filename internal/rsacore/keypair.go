package rsacore

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultPublicExponent は慣例的な公開指数 65537。
	DefaultPublicExponent uint64 = 65537

	// MaxExponentAttempts は公開指数のランダム探索の上限。
	MaxExponentAttempts = 1000
)

// PublicKey は公開鍵 (n, e) を表す。
type PublicKey struct {
	N uint64
	E uint64
}

// PrivateKey は秘密鍵 (n, d) を表す。
type PrivateKey struct {
	N uint64
	D uint64
}

// KeyPair は生成後に変更されない公開鍵・秘密鍵の組。
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// GenerateKeyPair は上限 max 以下の異なる2素数から鍵ペアを導出する。
// 失敗時はゼロ値の KeyPair とエラーを返し、部分的な結果は返さない。
func GenerateKeyPair(r Rand, max uint64) (KeyPair, error) {
	p, err := GenerateRandomPrime(r, max)
	if err != nil {
		return KeyPair{}, fmt.Errorf("drawing p: %w", err)
	}

	q, err := drawDistinctPrime(r, max, p)
	if err != nil {
		return KeyPair{}, fmt.Errorf("drawing q: %w", err)
	}

	n, err := mulChecked(p, q)
	if err != nil {
		return KeyPair{}, fmt.Errorf("computing modulus: %w", err)
	}
	phi, err := mulChecked(p-1, q-1)
	if err != nil {
		return KeyPair{}, fmt.Errorf("computing totient: %w", err)
	}

	e, err := choosePublicExponent(r, phi)
	if err != nil {
		return KeyPair{}, err
	}

	d, ok := ModInverse(e, phi)
	if !ok {
		return KeyPair{}, ErrNoInverse
	}

	return KeyPair{
		Public:  PublicKey{N: n, E: e},
		Private: PrivateKey{N: n, D: d},
	}, nil
}

// drawDistinctPrime は p と異なる素数が出るまで引き直す。
func drawDistinctPrime(r Rand, max, p uint64) (uint64, error) {
	for range MaxPrimeAttempts {
		q, err := GenerateRandomPrime(r, max)
		if err != nil {
			return 0, err
		}
		if q != p {
			return q, nil
		}
	}
	return 0, ErrDistinctPrimeNotFound
}

// choosePublicExponent は 65537 を優先し、使えなければ (1, phi) から互いに素な値を抽出する。
func choosePublicExponent(r Rand, phi uint64) (uint64, error) {
	if phi > DefaultPublicExponent && AreCoprime(DefaultPublicExponent, phi) {
		return DefaultPublicExponent, nil
	}
	// (1, phi) が空
	if phi <= 2 {
		return 0, ErrExponentNotFound
	}
	for range MaxExponentAttempts {
		e := 2 + r.Uint64N(phi-2)
		if AreCoprime(e, phi) {
			return e, nil
		}
	}
	return 0, ErrExponentNotFound
}

func mulChecked(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}
