package localdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"go.uber.org/zap"
)

// ShareDocument is one stored share record, kept as its JSON document.
type ShareDocument struct {
	ID        string    `json:"id"`
	GameType  string    `json:"game_type"`
	Document  []byte    `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// SetupShareTables creates the shares table.
func SetupShareTables(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS shares (
			id TEXT PRIMARY KEY,
			game_type TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Error("Failed to create shares table", zap.Error(err))
		return fmt.Errorf("failed to create shares table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_shares_created_at ON shares(created_at DESC)`); err != nil {
		logger.Warn("Failed to create shares index", zap.Error(err))
	}

	return nil
}

// PutShareDocument creates or overwrites the document stored under id.
func PutShareDocument(doc ShareDocument) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO shares (id, game_type, document, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			game_type = excluded.game_type,
			document = excluded.document,
			created_at = excluded.created_at
	`, doc.ID, doc.GameType, string(doc.Document), doc.CreatedAt)
	if err != nil {
		logger.Error("Failed to put share document", zap.Error(err), zap.String("share_id", doc.ID))
		return fmt.Errorf("failed to put share document: %w", err)
	}

	return nil
}

// GetShareDocument returns nil, nil when no document exists for id.
func GetShareDocument(id string) (*ShareDocument, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var (
		doc  ShareDocument
		body string
	)
	err := db.QueryRow(`SELECT id, game_type, document, created_at FROM shares WHERE id = ?`, id).
		Scan(&doc.ID, &doc.GameType, &body, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to get share document", zap.Error(err), zap.String("share_id", id))
		return nil, fmt.Errorf("failed to get share document: %w", err)
	}
	doc.Document = []byte(body)

	return &doc, nil
}

// ListShareDocuments returns documents ordered by latest first.
func ListShareDocuments(limit int) ([]ShareDocument, error) {
	db := GetDB()
	if db == nil {
		return []ShareDocument{}, fmt.Errorf("database not initialized")
	}

	query := `SELECT id, game_type, document, created_at FROM shares ORDER BY created_at DESC, id ASC`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		logger.Error("Failed to list share documents", zap.Error(err))
		return []ShareDocument{}, fmt.Errorf("failed to list share documents: %w", err)
	}
	defer rows.Close()

	docs := []ShareDocument{}
	for rows.Next() {
		var (
			doc  ShareDocument
			body string
		)
		if err := rows.Scan(&doc.ID, &doc.GameType, &body, &doc.CreatedAt); err != nil {
			logger.Error("Failed to scan share document", zap.Error(err))
			continue
		}
		doc.Document = []byte(body)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating share documents", zap.Error(err))
		return []ShareDocument{}, fmt.Errorf("failed to iterate share documents: %w", err)
	}

	return docs, nil
}
