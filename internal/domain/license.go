// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// KeyLength は正規化後のライセンスキーの文字数。
	KeyLength = 16

	// KeySeparator はライセンスキーの区切り文字。
	KeySeparator = "-"
)

// LicenseKey は区切り文字を除去した16文字のライセンスキーを表す。
type LicenseKey string

// Masked はログ出力用に先頭4文字以外を伏せた文字列を返す。
func (k LicenseKey) Masked() string {
	runes := []rune(k)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-4)
}

// DeviceID はクライアントが申告する端末識別子。
type DeviceID string

// UnknownDevice は端末識別子が指定されなかった場合の値。
const UnknownDevice DeviceID = "unknown"

// NewDeviceID は空文字を UnknownDevice に置き換えた端末識別子を返す。
func NewDeviceID(raw string) DeviceID {
	if raw == "" {
		return UnknownDevice
	}
	return DeviceID(raw)
}

// StripSeparators はキー文字列から区切り文字をすべて除去する。
func StripSeparators(raw string) string {
	return strings.ReplaceAll(raw, KeySeparator, "")
}

// NormalizeKey は利用者が入力したキーを LicenseKey に正規化する。
// 前後の空白や大文字小文字は変換しない。
func NormalizeKey(raw string) (LicenseKey, error) {
	if raw == "" {
		return "", ErrMissingKey
	}
	clean := StripSeparators(raw)
	if utf8.RuneCountInString(clean) != KeyLength {
		return "", ErrInvalidKeyLength
	}
	return LicenseKey(clean), nil
}

// VerifyRequest は検証リクエストを表す。
type VerifyRequest struct {
	RawKey   string
	DeviceID DeviceID
	Activate bool
}
