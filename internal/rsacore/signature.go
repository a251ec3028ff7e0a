package rsacore

// Sign はパディングなしで message^d mod n を返す。
// 意味のある往復には message < n が必要で、それ以上の値は n を法として折り返す。
func Sign(message uint64, key PrivateKey) (uint64, error) {
	if key.N == 0 {
		return 0, ErrInvalidModulus
	}
	return ModPow(message, key.D, key.N), nil
}

// Decode は signature^e mod n を返す。
func Decode(signature uint64, key PublicKey) (uint64, error) {
	if key.N == 0 {
		return 0, ErrInvalidModulus
	}
	return ModPow(signature, key.E, key.N), nil
}

// Verify は署名を復元した値が message mod n と一致するかを返す。
func Verify(message, signature uint64, key PublicKey) (bool, error) {
	decoded, err := Decode(signature, key)
	if err != nil {
		return false, err
	}
	return decoded == message%key.N, nil
}
