package repository

import (
	"context"
	"path/filepath"
	"testing"

	"license-service/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB はテスト用のSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sql := `
		CREATE TABLE activations (
			id TEXT PRIMARY KEY,
			license_key TEXT NOT NULL UNIQUE,
			device_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if err := db.Exec(sql).Error; err != nil {
		t.Fatalf("failed to create activations table: %v", err)
	}

	return db
}

func TestSQLActivationStore_Get(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewSQLActivationStore(db)

	if err := db.Exec("INSERT INTO activations (id, license_key, device_id) VALUES (?, ?, ?)",
		"test-id-1", "ABCDEFGHIJKLMNOP", "device-a").Error; err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}

	got, err := store.Get(ctx, "ABCDEFGHIJKLMNOP")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != domain.BoundTo("device-a") {
		t.Errorf("expected bound to device-a, got %+v", got)
	}

	// 存在しないキーは未紐付け
	got, err = store.Get(ctx, "QRSTUVWXYZ123456")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Bound {
		t.Errorf("expected unbound, got %+v", got)
	}
}

func TestSQLActivationStore_CompareAndSet_Insert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewSQLActivationStore(db)
	key := domain.LicenseKey("ABCDEFGHIJKLMNOP")

	ok, err := store.CompareAndSet(ctx, key, domain.Unbound(), "device-a")
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first insert to succeed")
	}

	var model ActivationModel
	if err := db.Where("license_key = ?", string(key)).First(&model).Error; err != nil {
		t.Fatalf("failed to load activation: %v", err)
	}
	if model.ID == "" {
		t.Error("expected ID to be generated, got empty")
	}
	if model.DeviceID != "device-a" {
		t.Errorf("expected device-a, got %s", model.DeviceID)
	}

	// 既に紐付け済みのキーへの挿入は失敗として扱う
	ok, err = store.CompareAndSet(ctx, key, domain.Unbound(), "device-b")
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if ok {
		t.Error("expected second insert to report conflict")
	}

	got, _ := store.Get(ctx, key)
	if got != domain.BoundTo("device-a") {
		t.Errorf("expected binding unchanged, got %+v", got)
	}
}

func TestSQLActivationStore_CompareAndSet_Transfer(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewSQLActivationStore(db)
	key := domain.LicenseKey("ABCDEFGHIJKLMNOP")

	if ok, err := store.CompareAndSet(ctx, key, domain.Unbound(), "device-a"); err != nil || !ok {
		t.Fatalf("setup failed: ok=%v err=%v", ok, err)
	}

	// 期待する端末が異なる場合は更新されない
	ok, err := store.CompareAndSet(ctx, key, domain.BoundTo("device-x"), "device-b")
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if ok {
		t.Error("expected stale expectation to fail")
	}

	ok, err = store.CompareAndSet(ctx, key, domain.BoundTo("device-a"), "device-b")
	if err != nil {
		t.Fatalf("CompareAndSet failed: %v", err)
	}
	if !ok {
		t.Fatal("expected transfer to succeed")
	}

	got, _ := store.Get(ctx, key)
	if got != domain.BoundTo("device-b") {
		t.Errorf("expected device-b, got %+v", got)
	}

	var count int64
	if err := db.Model(&ActivationModel{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}
