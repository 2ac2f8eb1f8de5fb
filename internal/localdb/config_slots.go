package localdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"go.uber.org/zap"
)

// ゲームモードごとの保存スロット
const (
	WheelConfigSlot = "wheel_config"
	PokeConfigSlot  = "poke_config"
)

// SetupConfigSlotTables creates config_slots.
func SetupConfigSlotTables(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS config_slots (
			slot TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		logger.Error("Failed to create config_slots table", zap.Error(err))
		return fmt.Errorf("failed to create config_slots table: %w", err)
	}
	return nil
}

// SaveConfigSlot upserts the serialized configuration for slot.
func SaveConfigSlot(slot string, value []byte) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO config_slots (slot, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, slot, string(value))
	if err != nil {
		logger.Error("Failed to save config slot", zap.Error(err), zap.String("slot", slot))
		return fmt.Errorf("failed to save config slot: %w", err)
	}
	return nil
}

// LoadConfigSlot returns nil, nil when the slot was never saved.
func LoadConfigSlot(slot string) ([]byte, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var value string
	err := db.QueryRow(`SELECT value FROM config_slots WHERE slot = ?`, slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to load config slot", zap.Error(err), zap.String("slot", slot))
		return nil, fmt.Errorf("failed to load config slot: %w", err)
	}
	return []byte(value), nil
}
