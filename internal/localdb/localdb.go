package localdb

import (
	"database/sql"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var DBClient *sql.DB

func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定（Race Condition対策）
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	if err := SetupShareTables(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := SetupBlobTables(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := SetupConfigSlotTables(db); err != nil {
		db.Close()
		return nil, err
	}

	DBClient = db
	logger.Debug("Local database ready", zap.String("path", dbPath))
	return db, nil
}

// GetDB は現在のデータベース接続を返します
func GetDB() *sql.DB {
	return DBClient
}

// CloseDB closes and forgets the shared connection.
func CloseDB() error {
	if DBClient == nil {
		return nil
	}
	err := DBClient.Close()
	DBClient = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
