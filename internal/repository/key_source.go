package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"license-service/internal/domain"
)

// FileKeySource は1行1キーのテキストファイルからライセンスキーを読み込む。
type FileKeySource struct {
	path string
}

// NewFileKeySource は新しいFileKeySourceを生成する。
func NewFileKeySource(path string) *FileKeySource {
	return &FileKeySource{path: path}
}

// Path は読み込み元のパスを返す。
func (s *FileKeySource) Path() string {
	return s.path
}

// ListNormalizedKeys はファイルを読み込み、正規化済みキーの集合を返す。
// 各行は前後の空白と区切り文字を除去し、16文字にならない行は読み飛ばす。
func (s *FileKeySource) ListNormalizedKeys(ctx context.Context) (map[domain.LicenseKey]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, s.path)
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return ParseKeyList(string(content)), nil
}

// ParseKeyList はキー一覧テキストを正規化済みキーの集合に変換する。
func ParseKeyList(content string) map[domain.LicenseKey]struct{} {
	keys := make(map[domain.LicenseKey]struct{})
	for _, line := range strings.Split(content, "\n") {
		clean := domain.StripSeparators(strings.TrimSpace(line))
		if utf8.RuneCountInString(clean) != domain.KeyLength {
			continue
		}
		keys[domain.LicenseKey(clean)] = struct{}{}
	}
	return keys
}
