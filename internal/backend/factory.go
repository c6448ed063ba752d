package backend

import (
	"context"
	"errors"
	"fmt"

	"xpenso/internal/amqp"
	"xpenso/internal/blob"
	"xpenso/internal/blob/gcs"
	"xpenso/internal/log"
	"xpenso/internal/store"
	"xpenso/internal/store/memory"
	"xpenso/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentApp)}
}

// CreateBackend builds the store, the bill storage and, when configured,
// the AMQP publisher. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{}
	var closers []func() error

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		res.Ready = repo.Ping
		closers = append(closers, repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		st, err := memory.NewFromDir(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		res.Store = st
		f.logger.Info("Initialized memory backend", "data_directory", dataDir, "records", st.Len())
	}

	bills, local, err := f.createBills(ctx, config)
	if err != nil {
		runClosers(closers)
		return nil, err
	}
	res.Bills, res.LocalBills = bills, local

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			res.Events = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	res.Cleanup = func() error { return runClosers(closers) }
	return res, nil
}

func (f *DefaultFactory) createBills(ctx context.Context, config Config) (blob.Store, *blob.FSStore, error) {
	switch config.Blob {
	case GCSBlob:
		st, err := gcs.NewFromEnv(ctx, config.BlobBucket, config.BlobPublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize GCS bill storage: %w", err)
		}
		f.logger.Info("Initialized GCS bill storage", "bucket", config.BlobBucket)
		return st, nil, nil
	default:
		baseURL := config.BlobPublicBaseURL
		if baseURL == "" {
			baseURL = "/bills"
		}
		st, err := blob.NewFSStore(config.BlobDir, baseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize bill directory: %w", err)
		}
		f.logger.Info("Initialized filesystem bill storage", "dir", config.BlobDir, "base_url", baseURL)
		return st, st, nil
	}
}

// runClosers closes in reverse order of creation.
func runClosers(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ store.Store = (*storage.SQLiteRepository)(nil)
