package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
	snapshotKeyPrefix    = "dashboard:snapshot:"
	snapshotIndexKey     = "dashboard:snapshots"
	snapshotGenKey       = "dashboard:generation"
	criticalStockKey     = "stock:critical"
)

// dropSnapshotsScript deletes every snapshot listed in the index set, then
// the index, and bumps the generation.
var dropSnapshotsScript = redis.NewScript(`
local index = KEYS[1]
local keys = redis.call('SMEMBERS', index)
for _, key in ipairs(keys) do
	redis.call('DEL', key)
end
redis.call('DEL', index)
redis.call('INCR', KEYS[2])
return #keys
`)

// storeSnapshotScript writes a snapshot only if the generation still matches
// the one the caller read before building it.
var storeSnapshotScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[3])) or 0
if current ~= tonumber(ARGV[3]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('SADD', KEYS[2], KEYS[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) GetSnapshot(ctx context.Context, name string) ([]byte, bool, error) {
	payload, err := r.client.Get(ctx, snapshotKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (r *RedisAdapter) SnapshotGeneration(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, snapshotGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *RedisAdapter) SetSnapshot(ctx context.Context, name string, payload []byte, ttl time.Duration, generation int64) (bool, error) {
	keys := []string{snapshotKeyPrefix + name, snapshotIndexKey, snapshotGenKey}
	stored, err := storeSnapshotScript.Run(ctx, r.client, keys, payload, ttl.Milliseconds(), generation).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (r *RedisAdapter) InvalidateSnapshots(ctx context.Context) error {
	return dropSnapshotsScript.Run(ctx, r.client, []string{snapshotIndexKey, snapshotGenKey}).Err()
}

func (r *RedisAdapter) MarkCritical(ctx context.Context, itemID string) (bool, error) {
	added, err := r.client.SAdd(ctx, criticalStockKey, itemID).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (r *RedisAdapter) ClearCritical(ctx context.Context, itemID string) error {
	return r.client.SRem(ctx, criticalStockKey, itemID).Err()
}
