package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"license-service/internal/domain"
)

const redisKeyPrefix = "license:activation:"

// ARGV[1]: 期待状態が紐付け済みなら "1"、ARGV[2]: 期待する端末、ARGV[3]: 新しい端末
var redisCompareAndSetScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if ARGV[1] == "1" then
  if current ~= ARGV[2] then
    return 0
  end
elseif current then
  return 0
end
redis.call("SET", KEYS[1], ARGV[3])
return 1
`)

// RedisActivationStore はRedisにアクティベーション状態を保持する。
// 複数インスタンスで単一端末の制約を共有するためのストア。
type RedisActivationStore struct {
	client *redis.Client
}

// NewRedisActivationStore は新しいRedisActivationStoreを生成する。
func NewRedisActivationStore(client *redis.Client) *RedisActivationStore {
	return &RedisActivationStore{client: client}
}

func redisKey(key domain.LicenseKey) string {
	return redisKeyPrefix + string(key)
}

// Get は指定キーの紐付け状態を返す。
func (s *RedisActivationStore) Get(ctx context.Context, key domain.LicenseKey) (domain.Binding, error) {
	device, err := s.client.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Unbound(), nil
		}
		slog.ErrorContext(ctx, "failed to get activation",
			"operation", "get",
			"license_key", key.Masked(),
			"error", err,
		)
		return domain.Binding{}, err
	}
	return domain.BoundTo(domain.DeviceID(device)), nil
}

// CompareAndSet は現在の状態が expected と一致する場合のみ next を紐付ける。
func (s *RedisActivationStore) CompareAndSet(ctx context.Context, key domain.LicenseKey, expected domain.Binding, next domain.DeviceID) (bool, error) {
	bound := "0"
	if expected.Bound {
		bound = "1"
	}
	result, err := redisCompareAndSetScript.Run(ctx, s.client, []string{redisKey(key)},
		bound, string(expected.Device), string(next)).Int64()
	if err != nil {
		slog.ErrorContext(ctx, "failed to compare and set activation",
			"operation", "compare_and_set",
			"license_key", key.Masked(),
			"error", err,
		)
		return false, fmt.Errorf("running compare-and-set script: %w", err)
	}
	return result == 1, nil
}
