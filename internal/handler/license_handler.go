// Package handler はHTTPハンドラを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"license-service/internal/domain"
	"license-service/internal/usecase"
	"license-service/pkg/httputil"
)

// レスポンスメッセージ
const (
	msgInvalidFormat = "Invalid license key format"
	msgInvalidLength = "Invalid license key length (should be 16 characters without dashes)"
	msgSystemError   = "License validation system error"
	msgServerError   = "Server error during license validation"
)

// Verifier はライセンス検証ユースケースのインターフェース。
type Verifier interface {
	Verify(ctx context.Context, req domain.VerifyRequest) (*usecase.Verification, error)
}

// LicenseHandler はライセンス検証のHTTPハンドラを提供する。
type LicenseHandler struct {
	service Verifier
}

// NewLicenseHandler は新しいLicenseHandlerを生成する。
func NewLicenseHandler(service Verifier) *LicenseHandler {
	return &LicenseHandler{service: service}
}

// VerifyResponse は検証結果のレスポンス形式。
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// parseVerifyRequest はクエリパラメータから検証リクエストを組み立てる。
// key が無い、空、または複数指定された場合は domain.ErrMissingKey を返す。
func parseVerifyRequest(r *http.Request) (domain.VerifyRequest, error) {
	query := r.URL.Query()

	keys := query["key"]
	if len(keys) != 1 || keys[0] == "" {
		return domain.VerifyRequest{}, domain.ErrMissingKey
	}

	activate := query["activate"]
	return domain.VerifyRequest{
		RawKey:   keys[0],
		DeviceID: domain.NewDeviceID(query.Get("deviceId")),
		Activate: len(activate) == 1 && activate[0] == "true",
	}, nil
}

// VerifyLicense はライセンスキーを検証し、必要に応じて端末へ紐付ける。
func (h *LicenseHandler) VerifyLicense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseVerifyRequest(r)
	if err != nil {
		slog.DebugContext(ctx, "rejected license request", "reason", err)
		httputil.Error(w, http.StatusBadRequest, msgInvalidFormat, "")
		return
	}

	result, err := h.service.Verify(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, VerifyResponse{
		Valid:   result.Verdict.Valid,
		Message: result.Verdict.Message,
	})
}

// Preflight はCORSプリフライトに空のボディで応答する。
func (h *LicenseHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Health は死活監視用のエンドポイント。
func (h *LicenseHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *LicenseHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, domain.ErrMissingKey):
		slog.DebugContext(ctx, "rejected license request", "reason", err)
		httputil.Error(w, http.StatusBadRequest, msgInvalidFormat, "")
	case errors.Is(err, domain.ErrInvalidKeyLength):
		slog.DebugContext(ctx, "rejected license request", "reason", err)
		httputil.Error(w, http.StatusBadRequest, msgInvalidLength, "")
	case errors.Is(err, domain.ErrCatalogUnavailable):
		slog.ErrorContext(ctx, "license keys source unavailable", "error", err)
		httputil.Error(w, http.StatusInternalServerError, msgSystemError, "")
	default:
		WriteUnexpectedError(w, r, err)
	}
}

// WriteUnexpectedError は想定外の障害を500で応答する。パニック復旧時にも使用する。
func WriteUnexpectedError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "license verification error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	httputil.Error(w, http.StatusInternalServerError, msgServerError, err.Error())
}
