package repository

import (
	"context"
	"sync"

	"license-service/internal/domain"
)

// MemoryActivationStore はプロセス内メモリにアクティベーション状態を保持する。
// 再起動で内容は失われる。
type MemoryActivationStore struct {
	mu       sync.Mutex
	bindings map[domain.LicenseKey]domain.DeviceID
}

// NewMemoryActivationStore は新しいMemoryActivationStoreを生成する。
func NewMemoryActivationStore() *MemoryActivationStore {
	return &MemoryActivationStore{
		bindings: make(map[domain.LicenseKey]domain.DeviceID),
	}
}

// Get は指定キーの紐付け状態を返す。
func (s *MemoryActivationStore) Get(_ context.Context, key domain.LicenseKey) (domain.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindingLocked(key), nil
}

// CompareAndSet は現在の状態が expected と一致する場合のみ next を紐付ける。
func (s *MemoryActivationStore) CompareAndSet(_ context.Context, key domain.LicenseKey, expected domain.Binding, next domain.DeviceID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bindingLocked(key) != expected {
		return false, nil
	}
	s.bindings[key] = next
	return true, nil
}

// Len は紐付け済みキーの件数を返す。
func (s *MemoryActivationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

func (s *MemoryActivationStore) bindingLocked(key domain.LicenseKey) domain.Binding {
	device, ok := s.bindings[key]
	if !ok {
		return domain.Unbound()
	}
	return domain.BoundTo(device)
}
