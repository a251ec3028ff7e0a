package domain

import "errors"

var (
	// ErrKeyNotFound は指定されたテナント・世代の鍵ペアが存在しない場合のエラー。
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyAlreadyExists は指定されたテナントに既に鍵ペアが存在する場合のエラー。
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrKeyDisabled は指定された鍵ペアが無効化されている場合のエラー。
	ErrKeyDisabled = errors.New("key is disabled")

	// ErrKeyAlreadyDisabled は指定された鍵ペアが既に無効化されている場合のエラー。
	ErrKeyAlreadyDisabled = errors.New("key is already disabled")

	// ErrInvalidTenantID はテナントIDの形式が不正な場合のエラー。
	ErrInvalidTenantID = errors.New("invalid tenant ID")

	// ErrInvalidGeneration は世代番号が不正な場合のエラー。
	ErrInvalidGeneration = errors.New("invalid generation")

	// ErrInvalidBound は素数の上限が鍵生成に使えない場合のエラー。
	ErrInvalidBound = errors.New("invalid prime bound")

	// ErrKeyGenerationFailed はエンジンが鍵ペアを導出できなかった場合のエラー。
	ErrKeyGenerationFailed = errors.New("key generation failed")

	// ErrMessageOutOfRange はメッセージが法 n 以上の場合のエラー。
	ErrMessageOutOfRange = errors.New("message must be less than modulus")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
