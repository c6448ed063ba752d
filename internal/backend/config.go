package backend

import (
	"errors"
	"fmt"
	"strings"

	"xpenso/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:              BackendType(appConfig.DataBackend),
		SQLiteDBPath:      appConfig.SQLiteDBPath,
		DataDirectory:     appConfig.DataDir,
		Blob:              BlobType(appConfig.BlobBackend),
		BlobDir:           appConfig.BlobDir,
		BlobBucket:        appConfig.BlobBucket,
		BlobPublicBaseURL: appConfig.BlobPublicBaseURL,
		AMQPURL:           appConfig.AMQPURL,
		AMQPExchange:      appConfig.AMQPExchange,
		AMQPQueue:         appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q (valid: %s)", c.Type, strings.Join(GetBackendTypeStrings(), ", "))
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}

	switch c.Blob {
	case FSBlob:
		if c.BlobDir == "" {
			return errors.New("bill directory is required for fs blob storage")
		}
	case GCSBlob:
		if c.BlobBucket == "" {
			return errors.New("bucket is required for gcs blob storage")
		}
	default:
		return fmt.Errorf("invalid blob type: %s", c.Blob)
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
