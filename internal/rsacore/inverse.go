package rsacore

// ModInverse は e*d ≡ 1 (mod phi) を満たす [1, phi) の最小の d を返す。
// gcd(e, phi) != 1 または phi <= 1 の場合は逆元が存在せず false を返す。
//
// 拡張ユークリッド法の係数を phi を法として保持するため、途中で符号付き整数や
// 64ビットを超える値は現れない。[1, phi) に解は高々1つなので線形探索と同じ結果になる。
func ModInverse(e, phi uint64) (uint64, bool) {
	if phi <= 1 {
		return 0, false
	}

	oldR, r := phi, e%phi
	oldT, t := uint64(0), uint64(1)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldT, t = t, subMod(oldT, mulMod(q, t, phi), phi)
	}
	if oldR != 1 {
		return 0, false
	}
	return oldT, true
}

// subMod は x, y < m を前提に (x - y) mod m を返す。
func subMod(x, y, m uint64) uint64 {
	if x >= y {
		return x - y
	}
	return m - (y - x)
}
