package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StoreBackendSQLite = "sqlite"
	StoreBackendRedis  = "redis"

	defaultShareBaseURL = "https://web-qman-roulette.vercel.app"
)

// EnvValue は実行時設定を保持する。
type EnvValue struct {
	ServerPort         int
	DebugMode          bool
	StoreBackend       string
	RedisURL           string
	ShareBaseURL       string
	BlobPublicURL      string
	DurableURLPrefixes []string
	AppScheme          string
	RemoteTimeout      time.Duration
	UploadConcurrency  int
}

var Value = Default()

// ShareLinkBase is the origin for share links built outside an HTTP request.
// ShareBaseURL が空のとき、サーバーはリクエストの origin を使う。
func (v EnvValue) ShareLinkBase() string {
	if v.ShareBaseURL != "" {
		return v.ShareBaseURL
	}
	return defaultShareBaseURL
}

// Default returns the settings used when no environment overrides exist.
func Default() EnvValue {
	return EnvValue{
		ServerPort:        8080,
		StoreBackend:      StoreBackendSQLite,
		RedisURL:          "redis://localhost:6379/0",
		BlobPublicURL:     defaultShareBaseURL + "/blobs",
		AppScheme:         "luckydraw",
		RemoteTimeout:     10 * time.Second,
		UploadConcurrency: 4,
	}
}

// LoadDotEnv loads a .env file if present. Existing variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// LoadEnv は .env と環境変数から Value を構築する。
func LoadEnv() {
	if err := LoadDotEnv(".env"); err != nil {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}
	Value = Load()
}

// Load reads the environment without touching the package-level Value.
func Load() EnvValue {
	cfg := Default()

	if raw := os.Getenv("SERVER_PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ServerPort = value
		}
	}
	cfg.DebugMode = strings.EqualFold(strings.TrimSpace(os.Getenv("DEBUG_MODE")), "true")

	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))); raw != "" {
		switch raw {
		case StoreBackendSQLite, StoreBackendRedis:
			cfg.StoreBackend = raw
		default:
			logger.Warn("Unknown STORE_BACKEND, using sqlite", zap.String("value", raw))
		}
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_URL")); raw != "" {
		cfg.RedisURL = raw
	}

	blobOverride := false
	if raw := strings.TrimSpace(os.Getenv("SHARE_BASE_URL")); raw != "" {
		cfg.ShareBaseURL = strings.TrimRight(raw, "/")
	}
	if raw := strings.TrimSpace(os.Getenv("BLOB_PUBLIC_URL")); raw != "" {
		cfg.BlobPublicURL = strings.TrimRight(raw, "/")
		blobOverride = true
	}
	if !blobOverride {
		cfg.BlobPublicURL = cfg.ShareLinkBase() + "/blobs"
	}

	if raw := os.Getenv("DURABLE_URL_PREFIXES"); raw != "" {
		for _, prefix := range strings.Split(raw, ",") {
			if prefix = strings.TrimSpace(prefix); prefix != "" {
				cfg.DurableURLPrefixes = append(cfg.DurableURLPrefixes, prefix)
			}
		}
	}
	if raw := strings.TrimSpace(os.Getenv("APP_SCHEME")); raw != "" {
		cfg.AppScheme = raw
	}
	if raw := os.Getenv("REMOTE_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RemoteTimeout = time.Duration(value) * time.Second
		}
	}
	if raw := os.Getenv("UPLOAD_CONCURRENCY"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.UploadConcurrency = value
		}
	}

	return cfg
}
