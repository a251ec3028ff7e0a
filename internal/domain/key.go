// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// KeyStatus は鍵ペアのステータスを表す。
type KeyStatus string

const (
	// KeyStatusActive は有効な鍵ペアを表す。
	KeyStatusActive KeyStatus = "active"
	// KeyStatusDisabled は無効化された鍵ペアを表す。
	KeyStatusDisabled KeyStatus = "disabled"
)

// KeyPairRecord はテナントが保持する鍵ペアのエンティティを表す。
// 秘密指数は KeyEncrypter で封印した状態でのみ保持する。
type KeyPairRecord struct {
	ID                       string
	TenantID                 string
	Generation               uint
	Modulus                  uint64
	PublicExponent           uint64
	EncryptedPrivateExponent []byte
	Bound                    uint64
	Status                   KeyStatus
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// KeyMetadata は鍵ペアの公開情報を表す（秘密指数を含まない）。
type KeyMetadata struct {
	TenantID       string
	Generation     uint
	Modulus        uint64
	PublicExponent uint64
	Bound          uint64
	Status         KeyStatus
	CreatedAt      time.Time
}

// Metadata はレコードから公開情報を取り出す。
func (k *KeyPairRecord) Metadata() *KeyMetadata {
	return &KeyMetadata{
		TenantID:       k.TenantID,
		Generation:     k.Generation,
		Modulus:        k.Modulus,
		PublicExponent: k.PublicExponent,
		Bound:          k.Bound,
		Status:         k.Status,
		CreatedAt:      k.CreatedAt,
	}
}

// Signature はテナント鍵による署名結果を表す。
type Signature struct {
	TenantID   string
	Generation uint
	Message    uint64
	Signature  uint64
}

// Verification はテナント鍵による検証結果を表す。
type Verification struct {
	TenantID   string
	Generation uint
	Message    uint64
	Signature  uint64
	Decoded    uint64
	Valid      bool
}
