// Package backend opens the share document and blob stores selected by env.
package backend

import (
	"context"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/env"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/shared/paths"
	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend is the opened remote share store.
type Backend struct {
	Client *sharestore.Client
	Blobs  *sharestore.FileBlobStore

	redis *redis.Client
}

// Open builds the share client. localdb must already be set up.
func Open(ctx context.Context, cfg env.EnvValue) (*Backend, error) {
	b := &Backend{
		Blobs: sharestore.NewFileBlobStore(paths.GetBlobDir(), cfg.BlobPublicURL, cfg.DurableURLPrefixes),
	}

	var docs sharestore.DocumentStore
	switch cfg.StoreBackend {
	case env.StoreBackendRedis:
		client, err := sharestore.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open share store: %w", err)
		}
		b.redis = client
		docs = sharestore.NewRedisDocuments(client)
	default:
		docs = sharestore.SQLiteDocuments{}
	}

	b.Client = sharestore.NewClient(docs, b.Blobs, nil, cfg.RemoteTimeout)
	logger.Info("Share store ready",
		zap.String("backend", cfg.StoreBackend),
		zap.String("blob_url", cfg.BlobPublicURL))
	return b, nil
}

func (b *Backend) Close() error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Close()
}
