// Package sharestore is the client side of the remote share store: a keyed
// document store for share records and a companion blob store for images.
package sharestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

// ErrNotFound is returned by DocumentStore.Get when no record exists for the id.
var ErrNotFound = errors.New("share not found")

// DocumentStore creates, overwrites and reads share records keyed by share id.
type DocumentStore interface {
	Put(ctx context.Context, record *types.ShareRecord) error
	Get(ctx context.Context, id string) (*types.ShareRecord, error)
}

// Lister is implemented by document stores that can enumerate their records.
type Lister interface {
	List(ctx context.Context, limit int) ([]types.ShareRecord, error)
}

// ErrListUnsupported is returned by Client.ListShares when the document store cannot enumerate.
var ErrListUnsupported = errors.New("share store cannot list records")

// BlobStore uploads image bytes and reports which URLs it considers durable.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	IsDurable(url string) bool
}

// ImageReader loads the bytes behind a local image reference.
type ImageReader interface {
	Read(ctx context.Context, location string) ([]byte, string, error)
}

// Client bundles the stores and bounds every remote call with Timeout.
type Client struct {
	Documents DocumentStore
	Blobs     BlobStore
	Reader    ImageReader
	Timeout   time.Duration
}

// NewClient returns a client. A non-positive timeout disables the bound.
func NewClient(docs DocumentStore, blobs BlobStore, reader ImageReader, timeout time.Duration) *Client {
	if reader == nil {
		reader = LocalReader{}
	}
	return &Client{Documents: docs, Blobs: blobs, Reader: reader, Timeout: timeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// PutShare writes record under record.ID.
func (c *Client) PutShare(ctx context.Context, record *types.ShareRecord) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.Documents.Put(ctx, record); err != nil {
		logger.Error("Failed to write share record", zap.String("share_id", record.ID), zap.Error(err))
		return err
	}
	logger.Info("Share record written", zap.String("share_id", record.ID), zap.String("type", string(record.Type)))
	return nil
}

// GetShare fetches a record. ErrNotFound is passed through unwrapped-compatible.
func (c *Client) GetShare(ctx context.Context, id string) (*types.ShareRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	record, err := c.Documents.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error("Failed to read share record", zap.String("share_id", id), zap.Error(err))
		}
		return nil, err
	}
	return record, nil
}

// ListShares returns up to limit records, newest first. A non-positive limit lists all.
func (c *Client) ListShares(ctx context.Context, limit int) ([]types.ShareRecord, error) {
	lister, ok := c.Documents.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	records, err := lister.List(ctx, limit)
	if err != nil {
		logger.Error("Failed to list share records", zap.Error(err))
		return nil, err
	}
	return records, nil
}

// UploadImage reads a local reference and uploads it under key.
func (c *Client) UploadImage(ctx context.Context, key string, ref types.ImageRef) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, contentType, err := c.Reader.Read(ctx, ref.Location)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", key, err)
	}
	url, err := c.Blobs.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}
	return url, nil
}

// RefFor tags an untagged image location: URLs the blob store recognizes as
// durable become remote refs, anything else is a local ref that must be uploaded.
func (c *Client) RefFor(location string) types.ImageRef {
	if c.Blobs.IsDurable(location) {
		return types.RemoteRef(location)
	}
	return types.LocalRef(location)
}

// IsDurable reports whether ref may be written into a share record as is.
// A ref tagged remote whose URL the blob store does not recognize is not.
func (c *Client) IsDurable(ref types.ImageRef) bool {
	return ref.IsRemote() && c.Blobs.IsDurable(ref.Location)
}

// ImageKey is the blob key for the option image at index.
func ImageKey(shareID string, index int) string {
	return fmt.Sprintf("shares/%s/image_%d.jpg", shareID, index)
}

// PreviewKey is the blob key of the share preview image.
func PreviewKey(shareID string) string {
	return fmt.Sprintf("shares/%s/preview.jpg", shareID)
}
