// Package migrations はSQLアクティベーションストア用のスキーマ定義を埋め込む。
package migrations

import "embed"

// FS はバージョン順に適用される *.sql ファイル群。
//
//go:embed *.sql
var FS embed.FS
