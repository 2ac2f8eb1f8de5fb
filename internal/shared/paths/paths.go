package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const appDirName = ".luckydraw"

// GetDataDir はデータディレクトリを返す。DATA_DIR が設定されていればそれを優先する。
func GetDataDir() string {
	if dir := strings.TrimSpace(os.Getenv("DATA_DIR")); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(homeDir, appDirName)
}

// GetDBPath returns the sqlite database file path.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "local.db")
}

// GetBlobDir returns the root directory for uploaded share images.
func GetBlobDir() string {
	return filepath.Join(GetDataDir(), "blobs")
}

// EnsureDataDirs creates the data and blob directories.
func EnsureDataDirs() error {
	for _, dir := range []string{GetDataDir(), GetBlobDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
