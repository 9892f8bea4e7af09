package domain

import "errors"

var (
	// ErrMissingKey はライセンスキーが指定されていない場合のエラー。
	ErrMissingKey = errors.New("license key is missing")

	// ErrInvalidKeyLength は正規化後のキー長が16文字でない場合のエラー。
	ErrInvalidKeyLength = errors.New("invalid license key length")

	// ErrCatalogNotFound はキー一覧のソースが存在しない場合のエラー。
	ErrCatalogNotFound = errors.New("license key catalog not found")

	// ErrCatalogUnavailable はキー一覧を読み込めない場合のエラー。
	ErrCatalogUnavailable = errors.New("license key catalog unavailable")

	// ErrActivationConflict は同一キーへの同時更新が規定回数競合した場合のエラー。
	ErrActivationConflict = errors.New("activation update conflict")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
