// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"license-service/config"
	"license-service/internal/handler"
	"license-service/internal/infra"
	"license-service/internal/repository"
	"license-service/internal/usecase"
	"license-service/migrations"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg)

	// メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infra.NewMetrics(registry)

	// アクティベーションストア初期化
	store, closeStore, err := newActivationStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to init activation store", "store", cfg.ActivationStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// DI
	source := repository.NewFileKeySource(cfg.KeysFile)
	catalog := usecase.NewKeyCatalog(source,
		usecase.WithRefreshInterval(cfg.CatalogRefreshInterval),
		usecase.WithReadAttempts(cfg.CatalogReadAttempts),
		usecase.WithCatalogRecorder(metrics),
	)
	service := usecase.NewLicenseService(catalog, usecase.NewActivationRegistry(store), metrics)
	h := handler.NewLicenseHandler(service)
	router := handler.NewRouter(h, cfg, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// 起動時点でキーファイルを確認する。読めなくてもリクエスト毎に再読込するため起動は続行する
	if size, err := catalog.Size(ctx); err != nil {
		slog.Warn("license key catalog not readable at start-up", "path", source.Path(), "error", err)
	} else {
		slog.Info("license key catalog loaded", "path", source.Path(), "keys", size)
	}

	// サーバー起動
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, cfg.OtelServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server",
		"port", cfg.Port,
		"store", cfg.ActivationStore,
		"keys_file", cfg.KeysFile,
	)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newActivationStore は設定に応じたアクティベーションストアと後始末関数を返す。
func newActivationStore(ctx context.Context, cfg *config.Config) (usecase.ActivationStore, func(), error) {
	switch cfg.ActivationStore {
	case config.StoreMemory:
		slog.Warn("activation bindings are kept in memory and lost on restart")
		return repository.NewMemoryActivationStore(), func() {}, nil

	case config.StoreMySQL, config.StoreSQLite:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the %s activation store", cfg.ActivationStore)
		}
		db, err := infra.NewDB(cfg.ActivationStore, cfg.DatabaseURL, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if cfg.AutoMigrate {
			migrationService := usecase.NewMigrationService(repository.NewMigrationRepository(db), db, migrations.FS)
			applied, err := migrationService.ApplyMigrations(ctx)
			if err != nil {
				closeDB()
				return nil, nil, err
			}
			slog.Info("migrations applied", "count", applied)
		}
		return repository.NewSQLActivationStore(db), closeDB, nil

	case config.StoreRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}
		return repository.NewRedisActivationStore(client), closeClient, nil

	default:
		return nil, nil, fmt.Errorf("unknown activation store: %q", cfg.ActivationStore)
	}
}
