package sharestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrInvalidBlobKey = errors.New("invalid blob key")

// FileBlobStore writes blobs under Root and serves them at PublicURL/<key>.
type FileBlobStore struct {
	Root            string
	PublicURL       string
	DurablePrefixes []string
}

func NewFileBlobStore(root, publicURL string, durablePrefixes []string) *FileBlobStore {
	return &FileBlobStore{
		Root:            root,
		PublicURL:       strings.TrimRight(publicURL, "/"),
		DurablePrefixes: durablePrefixes,
	}
}

// resolve maps key to a file path inside Root.
func (s *FileBlobStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidBlobKey, key)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *FileBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty blob for %s", key)
	}

	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	entry := localdb.BlobEntry{
		BlobKey:     key,
		FilePath:    path,
		ContentType: contentType,
		FileSize:    int64(len(data)),
	}
	// 画像として読めない場合もサイズ0で記録する
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		entry.Width = cfg.Width
		entry.Height = cfg.Height
	}
	if err := localdb.PutBlobEntry(entry); err != nil {
		logger.Warn("Failed to record blob metadata", zap.String("key", key), zap.Error(err))
	}

	return s.PublicURL + "/" + key, nil
}

// IsDurable reports whether url points into this store or a configured durable host.
func (s *FileBlobStore) IsDurable(url string) bool {
	if s.PublicURL != "" && strings.HasPrefix(url, s.PublicURL+"/") {
		return true
	}
	for _, prefix := range s.DurablePrefixes {
		if prefix != "" && strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// Open returns the stored bytes and content type for key.
func (s *FileBlobStore) Open(key string) ([]byte, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	contentType := ""
	if entry, err := localdb.GetBlobEntry(key); err == nil && entry != nil {
		contentType = entry.ContentType
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
