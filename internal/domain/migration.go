package domain

import "time"

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration はスキーママイグレーション1件を表す
type Migration struct {
	Version   string          `json:"version"`              // 例: "001"
	Name      string          `json:"name"`                 // ファイル名から抽出
	AppliedAt *time.Time      `json:"applied_at,omitempty"` // 未適用の場合はnil
	Path      string          `json:"-"`                    // マイグレーションFS内のパス
	Status    MigrationStatus `json:"status"`               // 適用状態
}
