package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"linkshort/internal/model"
	apperrors "linkshort/pkg/errors"
)

const (
	redisURLPrefix = "url:"
	redisSeqKey    = "urls:seq"
	redisIndexKey  = "urls:index"
)

// insertScript writes the mapping hash only if the code is free, so the
// existence check, id allocation and write are one atomic step.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local id = redis.call('INCR', KEYS[2])
redis.call('HSET', KEYS[1], 'id', id, 'original_url', ARGV[1], 'short_code', ARGV[2], 'created_at', ARGV[3], 'clicks', 0)
redis.call('ZADD', KEYS[3], id, ARGV[2])
return id
`)

var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'clicks', 1)
`)

// RedisStore keeps one hash per mapping plus an id-ordered index. It is only
// durable when the server runs with AOF persistence.
type RedisStore struct {
	Client *redis.Client
}

type redisRecord struct {
	ID          int64  `redis:"id"`
	OriginalURL string `redis:"original_url"`
	ShortCode   string `redis:"short_code"`
	CreatedAt   string `redis:"created_at"`
	Clicks      int64  `redis:"clicks"`
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Insert(ctx context.Context, originalURL, shortCode string) (*model.URLMapping, error) {
	created := now()
	id, err := insertScript.Run(ctx, s.Client,
		[]string{redisURLPrefix + shortCode, redisSeqKey, redisIndexKey},
		originalURL, shortCode, created.Format(time.RFC3339Nano)).Int64()
	if err != nil {
		return nil, apperrors.Internal(err, "insert url")
	}
	if id == 0 {
		return nil, apperrors.ErrShortCodeExists
	}

	return &model.URLMapping{
		ID: id, OriginalURL: originalURL, ShortCode: shortCode, CreatedAt: created, Clicks: 0,
	}, nil
}

func (s *RedisStore) FindByCode(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	cmd := s.Client.HGetAll(ctx, redisURLPrefix+shortCode)
	m, err := decodeRecord(cmd)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrURLNotFound
		}
		return nil, apperrors.Internal(err, "find url")
	}
	return m, nil
}

func (s *RedisStore) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	n, err := s.Client.Exists(ctx, redisURLPrefix+shortCode).Result()
	if err != nil {
		return false, apperrors.Internal(err, "check short code")
	}
	return n == 1, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]model.URLMapping, error) {
	codes, err := s.Client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, apperrors.Internal(err, "list urls")
	}

	res := make([]model.URLMapping, 0, len(codes))
	if len(codes) == 0 {
		return res, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(codes))
	_, err = s.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			cmds[i] = pipe.HGetAll(ctx, redisURLPrefix+code)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal(err, "list urls")
	}

	for _, cmd := range cmds {
		m, err := decodeRecord(cmd)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, apperrors.Internal(err, "decode url")
		}
		res = append(res, *m)
	}
	return res, nil
}

func (s *RedisStore) IncrementClicks(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	key := redisURLPrefix + shortCode
	clicks, err := incrementScript.Run(ctx, s.Client, []string{key}).Int64()
	if err != nil {
		return nil, apperrors.Internal(err, "increment clicks")
	}
	if clicks < 0 {
		return nil, apperrors.ErrURLNotFound
	}

	m, err := s.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	// Report the value this call produced even if another increment landed since.
	m.Clicks = clicks
	return m, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

// decodeRecord returns redis.Nil for a missing hash.
func decodeRecord(cmd *redis.MapStringStringCmd) (*model.URLMapping, error) {
	fields, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, redis.Nil
	}

	var rec redisRecord
	if err := cmd.Scan(&rec); err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", rec.CreatedAt, err)
	}

	return &model.URLMapping{
		ID:          rec.ID,
		OriginalURL: rec.OriginalURL,
		ShortCode:   rec.ShortCode,
		CreatedAt:   created.UTC(),
		Clicks:      rec.Clicks,
	}, nil
}
