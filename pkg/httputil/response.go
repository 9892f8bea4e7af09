// Package httputil はHTTPレスポンス生成のユーティリティを提供する。
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse はエラーレスポンスの形式。呼び出し側が常に valid を参照できるよう含める。
type ErrorResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON はJSONレスポンスを返す。
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// ヘッダーは送信済みのためログのみ
		slog.Error("failed to encode response", "status", status, "error", err)
	}
}

// Error は valid=false のエラーレスポンスを返す。detail が空の場合は error を省略する。
func Error(w http.ResponseWriter, status int, message, detail string) {
	JSON(w, status, ErrorResponse{
		Valid:   false,
		Message: message,
		Error:   detail,
	})
}
