// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/rsacore"
)

// KeyRepository はデータアクセスのインターフェース。
type KeyRepository interface {
	ExistsByTenantID(ctx context.Context, tenantID string) (bool, error)
	Create(ctx context.Context, key *domain.KeyPairRecord) error
	FindByTenantIDAndGeneration(ctx context.Context, tenantID string, generation uint) (*domain.KeyPairRecord, error)
	FindLatestActiveByTenantID(ctx context.Context, tenantID string) (*domain.KeyPairRecord, error)
	FindAllByTenantID(ctx context.Context, tenantID string) ([]*domain.KeyPairRecord, error)
	GetMaxGeneration(ctx context.Context, tenantID string) (uint, error)
	UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error
}

// KeyEncrypter は秘密指数の封印/開封のインターフェース。
// infra.KMSClient と infra.LocalSealer が実装する。
type KeyEncrypter interface {
	Encrypt(ctx context.Context, plaintext, aad []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext, aad []byte) ([]byte, error)
}

// KeyService はテナントが保持するRSA鍵ペアのビジネスロジックを提供する。
type KeyService struct {
	repo      KeyRepository
	encrypter KeyEncrypter
	crypto    *CryptoService
}

// NewKeyService は新しいKeyServiceを生成する。
func NewKeyService(repo KeyRepository, encrypter KeyEncrypter, crypto *CryptoService) *KeyService {
	return &KeyService{
		repo:      repo,
		encrypter: encrypter,
		crypto:    crypto,
	}
}

// keyAAD は封印データをテナント・世代に結び付ける追加認証データ。
func keyAAD(tenantID string, generation uint) []byte {
	return []byte(tenantID + ":" + strconv.FormatUint(uint64(generation), 10))
}

func encodeExponent(d uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, d)
}

func decodeExponent(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("unsealed exponent has %d bytes, want 8", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// newKeyPair は鍵ペアを生成し、秘密指数を封印したレコードを作る。
func (s *KeyService) newKeyPair(ctx context.Context, tenantID string, generation uint, bound uint64) (*domain.KeyPairRecord, error) {
	bound = s.crypto.resolveBound(bound)
	pair, err := s.crypto.GenerateKeyPair(ctx, bound)
	if err != nil {
		return nil, err
	}

	sealed, err := s.encrypter.Encrypt(ctx, encodeExponent(pair.Private.D), keyAAD(tenantID, generation))
	if err != nil {
		return nil, fmt.Errorf("sealing private exponent: %w", err)
	}

	return &domain.KeyPairRecord{
		TenantID:                 tenantID,
		Generation:               generation,
		Modulus:                  pair.Public.N,
		PublicExponent:           pair.Public.E,
		EncryptedPrivateExponent: sealed,
		Bound:                    bound,
		Status:                   domain.KeyStatusActive,
	}, nil
}

// CreateKey は指定されたテナントに最初の鍵ペアを生成する。bound が0なら既定の上限を使う。
func (s *KeyService) CreateKey(ctx context.Context, tenantID string, bound uint64) (*domain.KeyMetadata, error) {
	exists, err := s.repo.ExistsByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("checking existing key: %w", err)
	}
	if exists {
		return nil, domain.ErrKeyAlreadyExists
	}

	key, err := s.newKeyPair(ctx, tenantID, 1, bound)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("creating key: %w", err)
	}

	return key.Metadata(), nil
}

// RotateKey は指定されたテナントに新しい世代の鍵ペアを生成する。
func (s *KeyService) RotateKey(ctx context.Context, tenantID string, bound uint64) (*domain.KeyMetadata, error) {
	maxGen, err := s.repo.GetMaxGeneration(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting max generation: %w", err)
	}
	if maxGen == 0 {
		return nil, domain.ErrKeyNotFound
	}

	key, err := s.newKeyPair(ctx, tenantID, maxGen+1, bound)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("creating key: %w", err)
	}

	return key.Metadata(), nil
}

// GetCurrentKey は指定されたテナントの最新有効鍵の公開情報を取得する。
func (s *KeyService) GetCurrentKey(ctx context.Context, tenantID string) (*domain.KeyMetadata, error) {
	key, err := s.repo.FindLatestActiveByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding current key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	return key.Metadata(), nil
}

// GetKeyByGeneration は指定されたテナント・世代の公開情報を取得する。
func (s *KeyService) GetKeyByGeneration(ctx context.Context, tenantID string, generation uint) (*domain.KeyMetadata, error) {
	key, err := s.findActive(ctx, tenantID, generation)
	if err != nil {
		return nil, err
	}
	return key.Metadata(), nil
}

// ListKeys は指定されたテナントの全世代のメタデータを取得する。
func (s *KeyService) ListKeys(ctx context.Context, tenantID string) ([]*domain.KeyMetadata, error) {
	keys, err := s.repo.FindAllByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding keys: %w", err)
	}

	metadata := make([]*domain.KeyMetadata, len(keys))
	for i, k := range keys {
		metadata[i] = k.Metadata()
	}
	return metadata, nil
}

// DisableKey は指定されたテナント・世代の鍵ペアを無効化する。
func (s *KeyService) DisableKey(ctx context.Context, tenantID string, generation uint) error {
	key, err := s.repo.FindByTenantIDAndGeneration(ctx, tenantID, generation)
	if err != nil {
		return fmt.Errorf("finding key: %w", err)
	}
	if key == nil {
		return domain.ErrKeyNotFound
	}
	if key.Status == domain.KeyStatusDisabled {
		return domain.ErrKeyAlreadyDisabled
	}

	if err := s.repo.UpdateStatus(ctx, key.ID, domain.KeyStatusDisabled); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// Sign はテナントの最新有効鍵でメッセージに署名する。
// メッセージは n 未満でなければならない。
func (s *KeyService) Sign(ctx context.Context, tenantID string, message uint64) (*domain.Signature, error) {
	key, err := s.repo.FindLatestActiveByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding current key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	if message >= key.Modulus {
		return nil, fmt.Errorf("%w: %d >= %d", domain.ErrMessageOutOfRange, message, key.Modulus)
	}

	plain, err := s.encrypter.Decrypt(ctx, key.EncryptedPrivateExponent, keyAAD(key.TenantID, key.Generation))
	if err != nil {
		return nil, fmt.Errorf("unsealing private exponent: %w", err)
	}
	d, err := decodeExponent(plain)
	if err != nil {
		return nil, err
	}

	sig, err := s.crypto.Sign(ctx, message, rsacore.PrivateKey{N: key.Modulus, D: d})
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}

	return &domain.Signature{
		TenantID:   key.TenantID,
		Generation: key.Generation,
		Message:    message,
		Signature:  sig,
	}, nil
}

// Verify は指定された世代の公開鍵で署名を復元し、メッセージと照合する。
func (s *KeyService) Verify(ctx context.Context, tenantID string, generation uint, message, signature uint64) (*domain.Verification, error) {
	key, err := s.findActive(ctx, tenantID, generation)
	if err != nil {
		return nil, err
	}

	decoded, err := s.crypto.Decode(ctx, signature, rsacore.PublicKey{N: key.Modulus, E: key.PublicExponent})
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	return &domain.Verification{
		TenantID:   key.TenantID,
		Generation: key.Generation,
		Message:    message,
		Signature:  signature,
		Decoded:    decoded,
		Valid:      decoded == message%key.Modulus,
	}, nil
}

func (s *KeyService) findActive(ctx context.Context, tenantID string, generation uint) (*domain.KeyPairRecord, error) {
	key, err := s.repo.FindByTenantIDAndGeneration(ctx, tenantID, generation)
	if err != nil {
		return nil, fmt.Errorf("finding key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	if key.Status == domain.KeyStatusDisabled {
		return nil, domain.ErrKeyDisabled
	}
	return key, nil
}
