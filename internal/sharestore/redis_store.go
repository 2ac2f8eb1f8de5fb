package sharestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDocuments keeps share records as JSON strings. Records never expire.
type RedisDocuments struct {
	client *redis.Client
}

func NewRedisDocuments(client *redis.Client) *RedisDocuments {
	return &RedisDocuments{client: client}
}

// OpenRedis parses url and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}

func shareKey(id string) string {
	return fmt.Sprintf("share:%s", id)
}

func (s *RedisDocuments) Put(ctx context.Context, record *types.ShareRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode share record: %w", err)
	}
	if err := s.client.Set(ctx, shareKey(record.ID), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to save share record: %w", err)
	}
	return nil
}

func (s *RedisDocuments) Get(ctx context.Context, id string) (*types.ShareRecord, error) {
	body, err := s.client.Get(ctx, shareKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share record: %w", err)
	}

	var record types.ShareRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode share record %s: %w", id, err)
	}
	return &record, nil
}

// List scans every share key. Redis keeps no order, so records are sorted here.
func (s *RedisDocuments) List(ctx context.Context, limit int) ([]types.ShareRecord, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, shareKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan share records: %w", err)
	}
	if len(keys) == 0 {
		return []types.ShareRecord{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get share records: %w", err)
	}

	records := make([]types.ShareRecord, 0, len(values))
	for i, v := range values {
		body, ok := v.(string)
		if !ok {
			// SCAN と MGET の間に消えたキー
			continue
		}
		var record types.ShareRecord
		if err := json.Unmarshal([]byte(body), &record); err != nil {
			logger.Warn("Skipping undecodable share record",
				zap.String("share_id", strings.TrimPrefix(keys[i], "share:")), zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
