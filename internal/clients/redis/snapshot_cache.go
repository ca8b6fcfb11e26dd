package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

const DefaultSnapshotKey = "graph:snapshot:v1"

// setIfVersionScript writes KEYS[1] only while the counter at KEYS[2] still
// holds ARGV[1]. ARGV[3] is the ttl in milliseconds, 0 for none.
const setIfVersionScript = `
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// invalidateScript drops the snapshot and advances the counter in one step.
const invalidateScript = `
redis.call('DEL', KEYS[1])
return redis.call('INCR', KEYS[2])
`

type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// SnapshotCache stores the encoded regulatory graph snapshot under a single
// key so API replicas can share one load. A version counter next to the key
// is bumped on every Delete; Set only lands when the caller read the counter
// before loading and nobody bumped it since.
type SnapshotCache struct {
	log        *logger.Logger
	rdb        kv
	key        string
	versionKey string
}

func NewSnapshotCache(log *logger.Logger, rdb *goredis.Client, key string) *SnapshotCache {
	if rdb == nil {
		return nil
	}
	return newSnapshotCache(log, rdb, key)
}

func newSnapshotCache(log *logger.Logger, rdb kv, key string) *SnapshotCache {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SnapshotCache{
		log:        log.With("cache", "RedisSnapshotCache"),
		rdb:        rdb,
		key:        key,
		versionKey: key + ":version",
	}
}

// Version is 0 until the first Delete.
func (c *SnapshotCache) Version(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	v, err := c.rdb.Get(ctx, c.versionKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", c.versionKey, err)
	}
	return v, nil
}

// Get reports ok=false on a miss.
func (c *SnapshotCache) Get(ctx context.Context) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	return raw, true, nil
}

// Set stores data when the version still matches and reports whether it did.
// A ttl of zero keeps the key until Delete.
func (c *SnapshotCache) Set(ctx context.Context, version int64, data []byte, ttl time.Duration) (bool, error) {
	if c == nil {
		return false, nil
	}
	n, err := c.rdb.Eval(ctx, setIfVersionScript, []string{c.key, c.versionKey}, version, data, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", c.key, err)
	}
	if n == 0 {
		c.log.Debug("graph snapshot not cached, version moved", "version", version)
		return false, nil
	}
	c.log.Debug("graph snapshot cached", "bytes", len(data), "ttl", ttl.String(), "version", version)
	return true, nil
}

func (c *SnapshotCache) Delete(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Eval(ctx, invalidateScript, []string{c.key, c.versionKey}).Err(); err != nil {
		return fmt.Errorf("redis invalidate %s: %w", c.key, err)
	}
	return nil
}
