package sharestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

// SQLiteDocuments keeps share records in the local database.
type SQLiteDocuments struct{}

func (SQLiteDocuments) Put(ctx context.Context, record *types.ShareRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode share record: %w", err)
	}
	return localdb.PutShareDocument(localdb.ShareDocument{
		ID:        record.ID,
		GameType:  string(record.Type),
		Document:  body,
		CreatedAt: record.CreatedAt,
	})
}

func (SQLiteDocuments) Get(ctx context.Context, id string) (*types.ShareRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := localdb.GetShareDocument(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	var record types.ShareRecord
	if err := json.Unmarshal(doc.Document, &record); err != nil {
		return nil, fmt.Errorf("failed to decode share record %s: %w", id, err)
	}
	return &record, nil
}

// List returns the most recent records, newest first.
func (SQLiteDocuments) List(ctx context.Context, limit int) ([]types.ShareRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := localdb.ListShareDocuments(limit)
	if err != nil {
		return nil, err
	}
	records := make([]types.ShareRecord, 0, len(docs))
	for _, doc := range docs {
		var record types.ShareRecord
		if err := json.Unmarshal(doc.Document, &record); err != nil {
			logger.Warn("Skipping undecodable share record", zap.String("share_id", doc.ID), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
