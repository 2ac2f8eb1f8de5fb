package localdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"go.uber.org/zap"
)

// BlobEntry is the metadata of one uploaded blob.
type BlobEntry struct {
	ID          int64     `json:"id"`
	BlobKey     string    `json:"blob_key"`
	FilePath    string    `json:"file_path"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStats summarizes stored blobs.
type BlobStats struct {
	TotalFiles  int     `json:"total_files"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// SetupBlobTables creates blob_entries.
func SetupBlobTables(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blob_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			blob_key TEXT UNIQUE NOT NULL,
			file_path TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			file_size INTEGER DEFAULT 0,
			width INTEGER DEFAULT 0,
			height INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Error("Failed to create blob_entries table", zap.Error(err))
		return fmt.Errorf("failed to create blob_entries table: %w", err)
	}
	return nil
}

// PutBlobEntry inserts or replaces the metadata for entry.BlobKey.
func PutBlobEntry(entry BlobEntry) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO blob_entries (blob_key, file_path, content_type, file_size, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(blob_key) DO UPDATE SET
			file_path = excluded.file_path,
			content_type = excluded.content_type,
			file_size = excluded.file_size,
			width = excluded.width,
			height = excluded.height,
			created_at = CURRENT_TIMESTAMP
	`, entry.BlobKey, entry.FilePath, entry.ContentType, entry.FileSize, entry.Width, entry.Height)
	if err != nil {
		logger.Error("Failed to put blob entry", zap.Error(err), zap.String("key", entry.BlobKey))
		return fmt.Errorf("failed to put blob entry: %w", err)
	}

	logger.Debug("Stored blob entry", zap.String("key", entry.BlobKey), zap.Int64("size", entry.FileSize))
	return nil
}

// GetBlobEntry returns nil, nil for an unknown key.
func GetBlobEntry(key string) (*BlobEntry, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	entry := &BlobEntry{}
	err := db.QueryRow(`SELECT id, blob_key, file_path, content_type, file_size, width, height, created_at
		FROM blob_entries WHERE blob_key = ?`, key).Scan(
		&entry.ID, &entry.BlobKey, &entry.FilePath, &entry.ContentType,
		&entry.FileSize, &entry.Width, &entry.Height, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob entry: %w", err)
	}

	return entry, nil
}

// GetBlobStats calculates blob statistics
func GetBlobStats() (*BlobStats, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stats := &BlobStats{}
	err := db.QueryRow("SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM blob_entries").Scan(&stats.TotalFiles, &stats.TotalSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob stats: %w", err)
	}

	// Convert bytes to MB
	stats.TotalSizeMB = stats.TotalSizeMB / (1024 * 1024)
	return stats, nil
}
