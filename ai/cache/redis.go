package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisEntryPrefix = "wayfarer:answercache:entry:"
	redisIndexKey    = "wayfarer:answercache:index"
)

// RedisBackend shares the cache across processes. Entries live under
// individual keys with a server-side TTL; a sorted set indexed by insertion
// time provides ordering for eviction. Index members whose entry key has
// expired are dropped lazily during probes.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

type redisEntry struct {
	Query     string `json:"query"`
	Answer    string `json:"answer"`
	Embedding []byte `json:"embedding"`
	CreatedTs int64  `json:"created_ts"`
}

func (b *RedisBackend) Insert(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(redisEntry{
		Query:     entry.Query,
		Answer:    entry.Answer,
		Embedding: packVector(entry.Embedding),
		CreatedTs: entry.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, redisEntryPrefix+entry.UID, payload, b.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(entry.CreatedAt.UnixNano()),
		Member: entry.UID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (b *RedisBackend) Nearest(ctx context.Context, vector []float32, cutoff time.Time) (*Match, error) {
	// Newest first, so a strictly-greater comparison keeps the most recent
	// entry on similarity ties.
	uids, err := b.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cache index: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = redisEntryPrefix + uid
	}
	values, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read cache entries: %w", err)
	}

	var best *Match
	var stale []any
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Entry key expired; drop the index member below.
			stale = append(stale, uids[i])
			continue
		}
		var decoded redisEntry
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			stale = append(stale, uids[i])
			continue
		}
		if decoded.CreatedTs < cutoff.Unix() {
			continue
		}
		sim := cosineSimilarity(vector, unpackVector(decoded.Embedding))
		if best == nil || sim > best.Similarity {
			best = &Match{
				Entry: &Entry{
					UID:       uids[i],
					Query:     decoded.Query,
					Answer:    decoded.Answer,
					CreatedAt: time.Unix(decoded.CreatedTs, 0),
				},
				Similarity: sim,
			}
		}
	}

	if len(stale) > 0 {
		// Best effort, the next probe retries.
		_ = b.client.ZRem(ctx, redisIndexKey, stale...).Err()
	}
	return best, nil
}

func (b *RedisBackend) Count(ctx context.Context) (int, error) {
	n, err := b.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return int(n), nil
}

func (b *RedisBackend) EvictOldest(ctx context.Context, keep int) (int, error) {
	n, err := b.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	remove := int(n) - keep
	if remove <= 0 {
		return 0, nil
	}

	uids, err := b.client.ZRange(ctx, redisIndexKey, 0, int64(remove-1)).Result()
	if err != nil {
		return 0, fmt.Errorf("read oldest cache entries: %w", err)
	}
	return b.remove(ctx, uids)
}

func (b *RedisBackend) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	max := fmt.Sprintf("(%d", cutoff.UnixNano())
	uids, err := b.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read expired cache entries: %w", err)
	}
	return b.remove(ctx, uids)
}

func (b *RedisBackend) remove(ctx context.Context, uids []string) (int, error) {
	if len(uids) == 0 {
		return 0, nil
	}
	keys := make([]string, len(uids))
	members := make([]any, len(uids))
	for i, uid := range uids {
		keys[i] = redisEntryPrefix + uid
		members[i] = uid
	}
	pipe := b.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, redisIndexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("remove cache entries: %w", err)
	}
	return len(uids), nil
}

func packVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func unpackVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector
}
