// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"license-service/internal/domain"
)

// ActivationModel はgorm用のモデル定義。
type ActivationModel struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	LicenseKey string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	DeviceID   string    `gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `gorm:"type:datetime(6);not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (ActivationModel) TableName() string {
	return "activations"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *ActivationModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインの紐付け状態に変換する。
func (m *ActivationModel) toDomain() domain.Binding {
	return domain.BoundTo(domain.DeviceID(m.DeviceID))
}

// SQLActivationStore はRDBにアクティベーション状態を保持する。
// 複数インスタンスで同じDBを共有できる。
type SQLActivationStore struct {
	db *gorm.DB
}

// NewSQLActivationStore は新しいSQLActivationStoreを生成する。
func NewSQLActivationStore(db *gorm.DB) *SQLActivationStore {
	return &SQLActivationStore{db: db}
}

// Get は指定キーの紐付け状態を返す。
func (s *SQLActivationStore) Get(ctx context.Context, key domain.LicenseKey) (domain.Binding, error) {
	var model ActivationModel
	err := s.db.WithContext(ctx).
		Where("license_key = ?", string(key)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Unbound(), nil
		}
		slog.ErrorContext(ctx, "failed to find activation",
			"operation", "get",
			"license_key", key.Masked(),
			"error", err,
		)
		return domain.Binding{}, err
	}
	return model.toDomain(), nil
}

// CompareAndSet は現在の状態が expected と一致する場合のみ next を紐付ける。
// 未紐付けからの遷移は一意制約付きINSERT、紐付け済みからの遷移は条件付きUPDATEで行う。
func (s *SQLActivationStore) CompareAndSet(ctx context.Context, key domain.LicenseKey, expected domain.Binding, next domain.DeviceID) (bool, error) {
	if !expected.Bound {
		return s.insert(ctx, key, next)
	}
	return s.update(ctx, key, expected.Device, next)
}

func (s *SQLActivationStore) insert(ctx context.Context, key domain.LicenseKey, device domain.DeviceID) (bool, error) {
	model := &ActivationModel{
		LicenseKey: string(key),
		DeviceID:   string(device),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to create activation",
			"operation", "insert",
			"license_key", key.Masked(),
			"error", result.Error,
		)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *SQLActivationStore) update(ctx context.Context, key domain.LicenseKey, from, to domain.DeviceID) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&ActivationModel{}).
		Where("license_key = ? AND device_id = ?", string(key), string(from)).
		Update("device_id", string(to))
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to transfer activation",
			"operation", "update",
			"license_key", key.Masked(),
			"error", result.Error,
		)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
