package domain

import "time"

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration はアクティベーションテーブル用スキーマ変更の1件を表す
type Migration struct {
	Version   string     // 例: "001"
	Name      string     // ファイル名から抽出
	AppliedAt *time.Time // 未適用の場合はnil
	Path      string     // 埋め込みFS内のパス
	Status    MigrationStatus
}
