package infra

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCiphertextTooShort は封印データがノンスより短い場合のエラー。
var ErrCiphertextTooShort = errors.New("sealed data too short")

// LocalSealer はプロセス内の鍵でXChaCha20-Poly1305封印を行う。
// KMSを使わない開発環境向け。出力形式は nonce || ciphertext。
type LocalSealer struct {
	key []byte
}

// NewLocalSealer はbase64エンコードされた32バイト鍵からLocalSealerを生成する。
func NewLocalSealer(encodedKey string) (*LocalSealer, error) {
	if encodedKey == "" {
		return nil, fmt.Errorf("LOCAL_SEAL_KEY is required when SEALER=local")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding LOCAL_SEAL_KEY: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("LOCAL_SEAL_KEY must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &LocalSealer{key: key}, nil
}

// Encrypt は平文を封印する。
func (s *LocalSealer) Encrypt(_ context.Context, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Decrypt は封印を解く。aadが封印時と異なれば失敗する。
func (s *LocalSealer) Decrypt(_ context.Context, sealed, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating aead: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}

// Close は何もしない。
func (s *LocalSealer) Close() error {
	return nil
}
