package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"xpenso/internal/blob"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

// Store keeps bills as objects in a Cloud Storage bucket.
type Store struct {
	svc        *gstorage.Service
	bucket     string
	publicBase string
}

var _ blob.Store = (*Store)(nil)

// New creates a bucket-backed store. Object URLs are publicBase/<name>;
// an empty or relative publicBase falls back to the storage.googleapis.com URL.
func New(ctx context.Context, bucket, publicBase string, opts ...goption.ClientOption) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("missing bucket name")
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	if !strings.HasPrefix(publicBase, "http://") && !strings.HasPrefix(publicBase, "https://") {
		publicBase = "https://storage.googleapis.com/" + bucket
	}
	return &Store{svc: svc, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// NewFromEnv authenticates with the same service account variables as the
// Sheets mirror, falling back to application default credentials.
func NewFromEnv(ctx context.Context, bucket, publicBase string) (*Store, error) {
	opts := []goption.ClientOption{goption.WithScopes(gstorage.DevstorageReadWriteScope)}

	switch {
	case strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")) != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))))
	case strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")) != "":
		data, err := os.ReadFile(strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(data))
	default:
		slog.InfoContext(ctx, "Using application default credentials for bill storage", "bucket", bucket)
	}
	return New(ctx, bucket, publicBase, opts...)
}

func (s *Store) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := blob.CheckContentType(contentType); err != nil {
		return "", err
	}
	data, err := blob.ReadLimited(r)
	if err != nil {
		return "", err
	}

	obj := &gstorage.Object{Name: name, ContentType: contentType}
	_, err = s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", name, s.bucket, err)
	}

	slog.InfoContext(ctx, "Bill uploaded", "bucket", s.bucket, "object", name, "size", len(data))
	return s.publicBase + "/" + name, nil
}

// Delete removes the object behind url; an already missing object is not an error.
func (s *Store) Delete(ctx context.Context, url string) error {
	prefix := s.publicBase + "/"
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("%w: %s", blob.ErrInvalidURL, url)
	}
	name := strings.TrimPrefix(url, prefix)

	err := s.svc.Objects.Delete(s.bucket, name).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s from bucket %s: %w", name, s.bucket, err)
	}
	return nil
}
