package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"license-service/config"
	"license-service/internal/infra"
	"license-service/internal/middleware"
)

// VerifyPath はライセンス検証エンドポイントのパス。
const VerifyPath = "/api/verify-license"

// corsOptions は任意のオリジンから資格情報付きで呼び出せるCORS設定。
var corsOptions = cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodOptions, http.MethodPost},
	AllowedHeaders: []string{
		"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length",
		"Content-MD5", "Content-Type", "Date", "X-Api-Version",
	},
	AllowCredentials:   true,
	// プリフライトも Preflight ハンドラで応答する
	OptionsPassthrough: true,
}

// allowCORS は Origin の有無に関わらず固定のCORSヘッダを全レスポンスに付与する。
// ブラウザ以外のクライアントやエラー応答にも同じヘッダを返す。
func allowCORS(next http.Handler) http.Handler {
	methods := strings.Join(corsOptions.AllowedMethods, ",")
	headers := strings.Join(corsOptions.AllowedHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		next.ServeHTTP(w, r)
	})
}

// NewRouter はルーターを生成する。metrics が nil の場合 /metrics は登録しない。
func NewRouter(h *LicenseHandler, cfg *config.Config, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	requestLogger := httplog.NewLogger("http", httplog.Options{
		LogLevel:         infra.ParseLogLevel(cfg.LogLevel),
		JSON:             true,
		Concise:          true,
		MessageFieldName: "msg",
	})

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httplog.RequestLogger(requestLogger))
	r.Use(middleware.RecoverJSON(WriteUnexpectedError))
	r.Use(cors.Handler(corsOptions))
	r.Use(allowCORS)

	// ルート定義
	r.Get(VerifyPath, h.VerifyLicense)
	r.Post(VerifyPath, h.VerifyLicense)
	r.Options(VerifyPath, h.Preflight)
	r.Get("/healthz", h.Health)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}
