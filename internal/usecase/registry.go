package usecase

import (
	"context"
	"fmt"

	"license-service/internal/domain"
)

const defaultMaxAttempts = 8

// ActivationStore はキーごとの紐付け状態を保持するストアのインターフェース。
// CompareAndSet は現在の状態が expected と一致する場合のみ next に更新し、更新したかを返す。
type ActivationStore interface {
	Get(ctx context.Context, key domain.LicenseKey) (domain.Binding, error)
	CompareAndSet(ctx context.Context, key domain.LicenseKey, expected domain.Binding, next domain.DeviceID) (bool, error)
}

// ActivationRegistry はアクティベーション状態遷移をキー単位で原子的に適用する。
type ActivationRegistry struct {
	store       ActivationStore
	maxAttempts int
}

// NewActivationRegistry は新しいActivationRegistryを生成する。
func NewActivationRegistry(store ActivationStore) *ActivationRegistry {
	return &ActivationRegistry{
		store:       store,
		maxAttempts: defaultMaxAttempts,
	}
}

// Evaluate は現在の状態を読み、遷移表を評価し、必要なら書き込む。
// 書き込みが他のリクエストと競合した場合は読み直して再評価する。
func (r *ActivationRegistry) Evaluate(ctx context.Context, key domain.LicenseKey, device domain.DeviceID, activate bool) (domain.Decision, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		current, err := r.store.Get(ctx, key)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("reading activation: %w", err)
		}

		decision := domain.Decide(current, device, activate)
		if !decision.Changed() {
			return decision, nil
		}

		swapped, err := r.store.CompareAndSet(ctx, key, current, decision.Next.Device)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("writing activation: %w", err)
		}
		if swapped {
			return decision, nil
		}
	}
	return domain.Decision{}, fmt.Errorf("%w: key %s", domain.ErrActivationConflict, key.Masked())
}
