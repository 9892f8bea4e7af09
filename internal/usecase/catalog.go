package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"license-service/internal/domain"
)

// KeySource はライセンスキー一覧の読み込み元のインターフェース。
// ソースが存在しない場合は domain.ErrCatalogNotFound を返し、空の場合は空集合を返す。
type KeySource interface {
	ListNormalizedKeys(ctx context.Context) (map[domain.LicenseKey]struct{}, error)
}

// CatalogRecorder はカタログ読み込み結果の記録先。
type CatalogRecorder interface {
	RecordCatalogLoad(size int, err error)
}

// CatalogOption はKeyCatalogの設定を変更する。
type CatalogOption func(*KeyCatalog)

// WithRefreshInterval は読み込み結果を保持する期間を設定する。0の場合は毎回読み込む。
func WithRefreshInterval(d time.Duration) CatalogOption {
	return func(c *KeyCatalog) { c.refreshInterval = d }
}

// WithReadAttempts は一時的な読み込み失敗時の最大試行回数を設定する。
func WithReadAttempts(n uint) CatalogOption {
	return func(c *KeyCatalog) {
		if n > 0 {
			c.readAttempts = n
		}
	}
}

// WithCatalogRecorder は読み込み結果の記録先を設定する。
func WithCatalogRecorder(r CatalogRecorder) CatalogOption {
	return func(c *KeyCatalog) { c.recorder = r }
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) CatalogOption {
	return func(c *KeyCatalog) { c.now = now }
}

// KeyCatalog は有効なライセンスキーの集合を提供する。
type KeyCatalog struct {
	source          KeySource
	refreshInterval time.Duration
	readAttempts    uint
	recorder        CatalogRecorder
	now             func() time.Time

	mu       sync.Mutex
	snapshot map[domain.LicenseKey]struct{}
	loadedAt time.Time
}

// NewKeyCatalog は新しいKeyCatalogを生成する。
func NewKeyCatalog(source KeySource, opts ...CatalogOption) *KeyCatalog {
	c := &KeyCatalog{
		source:       source,
		readAttempts: 3,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Contains はキーがカタログに含まれるかを返す。
// ソースを読み込めない場合は false ではなく domain.ErrCatalogUnavailable を返す。
func (c *KeyCatalog) Contains(ctx context.Context, key domain.LicenseKey) (bool, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return false, err
	}
	_, ok := keys[key]
	return ok, nil
}

// Size は現在のカタログのキー数を返す。
func (c *KeyCatalog) Size(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (c *KeyCatalog) keys(ctx context.Context) (map[domain.LicenseKey]struct{}, error) {
	if c.refreshInterval <= 0 {
		return c.load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.loadedAt) < c.refreshInterval {
		return c.snapshot, nil
	}
	keys, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.snapshot = keys
	c.loadedAt = c.now()
	return keys, nil
}

func (c *KeyCatalog) load(ctx context.Context) (map[domain.LicenseKey]struct{}, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	keys, err := backoff.Retry(ctx, func() (map[domain.LicenseKey]struct{}, error) {
		keys, err := c.source.ListNormalizedKeys(ctx)
		if errors.Is(err, domain.ErrCatalogNotFound) {
			return nil, backoff.Permanent(err)
		}
		return keys, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.readAttempts),
	)

	if c.recorder != nil {
		c.recorder.RecordCatalogLoad(len(keys), err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "license key catalog unavailable",
			"operation", "load_catalog",
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	return keys, nil
}
