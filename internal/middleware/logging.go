// Package middleware はHTTPミドルウェアと監査ログを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// AuditLog は監査ログの構造体。
type AuditLog struct {
	Operation  string `json:"operation"`
	LicenseKey string `json:"license_key"`
	FromDevice string `json:"from_device,omitempty"`
	ToDevice   string `json:"to_device"`
	Timestamp  string `json:"timestamp"`
}

// WriteAuditLog は紐付け変更の監査ログを出力する。licenseKey はマスク済みの値を渡すこと。
func WriteAuditLog(ctx context.Context, operation, licenseKey, fromDevice, toDevice string) {
	entry := AuditLog{
		Operation:  operation,
		LicenseKey: licenseKey,
		FromDevice: fromDevice,
		ToDevice:   toDevice,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	slog.InfoContext(ctx, "activation changed",
		"operation", entry.Operation,
		"license_key", entry.LicenseKey,
		"from_device", entry.FromDevice,
		"to_device", entry.ToDevice,
		"timestamp", entry.Timestamp,
	)
}
