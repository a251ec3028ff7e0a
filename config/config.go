// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port               string
	DatabaseURL        string
	LogLevel           string
	LogFormat          string
	GoogleCloudProject string

	// Sealer は秘密指数の保護方式（"kms" または "local"）。
	Sealer       string
	KMSKeyName   string
	LocalSealKey string

	OtelEnabled      bool
	OtelEndpoint     string
	OtelInsecure     bool
	OtelServiceName  string
	OtelSamplingRate float64

	// DefaultKeyBound は上限の指定がない鍵生成で使う素数の上限。
	DefaultKeyBound uint64
	MigrateOnStart  bool
	MigrationsDir   string
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		LogLevel:           strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Sealer:             getEnv("SEALER", "kms"),
		KMSKeyName:         os.Getenv("KMS_KEY_NAME"),
		LocalSealKey:       os.Getenv("LOCAL_SEAL_KEY"),
		OtelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelInsecure:       getEnvBool("OTEL_INSECURE", false),
		OtelServiceName:    getEnv("OTEL_SERVICE_NAME", "toy-rsa-service"),
		OtelSamplingRate:   getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		DefaultKeyBound:    getEnvUint("DEFAULT_KEY_BOUND", 10000),
		MigrateOnStart:     getEnvBool("MIGRATE_ON_START", false),
		MigrationsDir:      os.Getenv("MIGRATIONS_DIR"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvFloat(key string, defaultVal float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvUint(key string, defaultVal uint64) uint64 {
	u, err := strconv.ParseUint(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultVal
	}
	return u
}
