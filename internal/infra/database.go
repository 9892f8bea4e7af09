// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"license-service/config"
)

// NewDB はgormによるデータベース接続を初期化する。
// driver は config.StoreMySQL または config.StoreSQLite。MySQLのDSNには parseTime=true を含めること。
func NewDB(driver, dsn string, cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StoreMySQL:
		dialector = mysql.Open(dsn)
	case config.StoreSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.OtelEnabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("registering tracing plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if driver == config.StoreSQLite {
		// SQLiteは単一ライターのため書き込み競合を避ける
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
