// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"toy-rsa-service/internal/domain"
)

// KeyPairModel はgorm用のモデル定義。
// 64ビット値はドライバ間で符号の扱いが異なるため10進文字列で保存する。
type KeyPairModel struct {
	ID                       string    `gorm:"type:char(36);primaryKey"`
	TenantID                 string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_tenant_generation;index:idx_key_pairs_tenant_status"`
	Generation               uint      `gorm:"not null;uniqueIndex:uk_tenant_generation"`
	Modulus                  string    `gorm:"type:varchar(20);not null"`
	PublicExponent           string    `gorm:"type:varchar(20);not null"`
	EncryptedPrivateExponent []byte    `gorm:"type:blob;not null"`
	Bound                    string    `gorm:"type:varchar(20);not null"`
	Status                   string    `gorm:"type:varchar(16);not null;default:'active';index:idx_key_pairs_tenant_status"`
	CreatedAt                time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt                time.Time `gorm:"not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (KeyPairModel) TableName() string {
	return "key_pairs"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *KeyPairModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func newKeyPairModel(key *domain.KeyPairRecord) *KeyPairModel {
	return &KeyPairModel{
		ID:                       key.ID,
		TenantID:                 key.TenantID,
		Generation:               key.Generation,
		Modulus:                  strconv.FormatUint(key.Modulus, 10),
		PublicExponent:           strconv.FormatUint(key.PublicExponent, 10),
		EncryptedPrivateExponent: key.EncryptedPrivateExponent,
		Bound:                    strconv.FormatUint(key.Bound, 10),
		Status:                   string(key.Status),
	}
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *KeyPairModel) toDomain() (*domain.KeyPairRecord, error) {
	modulus, err := strconv.ParseUint(m.Modulus, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing modulus of key %s: %w", m.ID, err)
	}
	exponent, err := strconv.ParseUint(m.PublicExponent, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing public exponent of key %s: %w", m.ID, err)
	}
	bound, err := strconv.ParseUint(m.Bound, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing bound of key %s: %w", m.ID, err)
	}
	return &domain.KeyPairRecord{
		ID:                       m.ID,
		TenantID:                 m.TenantID,
		Generation:               m.Generation,
		Modulus:                  modulus,
		PublicExponent:           exponent,
		EncryptedPrivateExponent: m.EncryptedPrivateExponent,
		Bound:                    bound,
		Status:                   domain.KeyStatus(m.Status),
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}, nil
}

// KeyPairRepository は鍵ペアのデータアクセスを提供する。
type KeyPairRepository struct {
	db *gorm.DB
}

// NewKeyPairRepository は新しいKeyPairRepositoryを生成する。
func NewKeyPairRepository(db *gorm.DB) *KeyPairRepository {
	return &KeyPairRepository{db: db}
}

// ExistsByTenantID は指定されたテナントに鍵ペアが存在するか確認する。
func (r *KeyPairRepository) ExistsByTenantID(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&KeyPairModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count key pairs by tenant_id",
			"operation", "exists_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// Create は新しい鍵ペアを保存する。
func (r *KeyPairRepository) Create(ctx context.Context, key *domain.KeyPairRecord) error {
	model := newKeyPairModel(key)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create key pair",
			"operation", "create",
			"tenant_id", key.TenantID,
			"generation", key.Generation,
			"error", err,
		)
		return err
	}
	key.ID = model.ID
	key.CreatedAt = model.CreatedAt
	key.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByTenantIDAndGeneration は指定されたテナント・世代の鍵ペアを取得する。
// 存在しない場合は nil, nil を返す。
func (r *KeyPairRepository) FindByTenantIDAndGeneration(ctx context.Context, tenantID string, generation uint) (*domain.KeyPairRecord, error) {
	var model KeyPairModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND generation = ?", tenantID, generation).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find key pair",
			"operation", "find_by_tenant_id_and_generation",
			"tenant_id", tenantID,
			"generation", generation,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain()
}

// FindLatestActiveByTenantID は指定されたテナントの最新有効鍵ペアを取得する。
func (r *KeyPairRepository) FindLatestActiveByTenantID(ctx context.Context, tenantID string) (*domain.KeyPairRecord, error) {
	var model KeyPairModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.KeyStatusActive)).
		Order("generation DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find latest active key pair",
			"operation", "find_latest_active_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain()
}

// FindAllByTenantID は指定されたテナントの全世代を世代順に取得する。
func (r *KeyPairRepository) FindAllByTenantID(ctx context.Context, tenantID string) ([]*domain.KeyPairRecord, error) {
	var models []KeyPairModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("generation ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all key pairs by tenant_id",
			"operation", "find_all_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}

	keys := make([]*domain.KeyPairRecord, len(models))
	for i := range models {
		key, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// GetMaxGeneration は指定されたテナントの最大世代番号を取得する。鍵がなければ0。
func (r *KeyPairRepository) GetMaxGeneration(ctx context.Context, tenantID string) (uint, error) {
	var maxGen *uint
	err := r.db.WithContext(ctx).
		Model(&KeyPairModel{}).
		Where("tenant_id = ?", tenantID).
		Select("MAX(generation)").
		Scan(&maxGen).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to get max generation",
			"operation", "get_max_generation",
			"tenant_id", tenantID,
			"error", err,
		)
		return 0, err
	}
	if maxGen == nil {
		return 0, nil
	}
	return *maxGen, nil
}

// UpdateStatus は指定されたIDの鍵ペアのステータスを更新する。
func (r *KeyPairRepository) UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error {
	err := r.db.WithContext(ctx).
		Model(&KeyPairModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update status",
			"operation", "update_status",
			"id", id,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}
