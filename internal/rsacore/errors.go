package rsacore

import "errors"

var (
	// ErrBoundTooSmall は上限が2未満で素数が存在し得ない場合のエラー。
	ErrBoundTooSmall = errors.New("bound too small: no prime possible")

	// ErrPrimeNotFound は試行回数内に素数が見つからなかった場合のエラー。
	ErrPrimeNotFound = errors.New("no prime found within attempt budget")

	// ErrDistinctPrimeNotFound は p と異なる q を試行回数内に得られなかった場合のエラー。
	ErrDistinctPrimeNotFound = errors.New("no distinct second prime found within attempt budget")

	// ErrExponentNotFound は φ と互いに素な公開指数を試行回数内に得られなかった場合のエラー。
	ErrExponentNotFound = errors.New("no public exponent found within attempt budget")

	// ErrOverflow は法またはトーシェントが64ビットに収まらない場合のエラー。
	ErrOverflow = errors.New("value overflows 64-bit domain")

	// ErrNoInverse はモジュラ逆元が存在しない場合のエラー。
	ErrNoInverse = errors.New("modular inverse does not exist")

	// ErrInvalidModulus は法が0の鍵を渡された場合のエラー。
	ErrInvalidModulus = errors.New("invalid modulus")
)
