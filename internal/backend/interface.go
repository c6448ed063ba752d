package backend

import (
	"context"

	"xpenso/internal/blob"
	"xpenso/internal/services"
	"xpenso/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds everything the expense service is built from.
type BackendResult struct {
	Store store.Store
	Bills blob.Store
	// LocalBills is set when bills live on the local filesystem and must be
	// served by the HTTP server.
	LocalBills *blob.FSStore
	// Events is nil when AMQP is not configured or unreachable.
	Events services.EventPublisher
	// Ready reports whether the store is usable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	// Bill storage
	Blob              BlobType
	BlobDir           string
	BlobBucket        string
	BlobPublicBaseURL string

	// Optional event stream
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects the expense store.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// BlobType selects where bills are stored.
type BlobType string

const (
	FSBlob  BlobType = "fs"
	GCSBlob BlobType = "gcs"
)

func (bt BlobType) IsValid() bool {
	return bt == FSBlob || bt == GCSBlob
}
