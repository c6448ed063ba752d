package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// MaxSize is the largest bill accepted by Put.
const MaxSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported bill content type")
	ErrTooLarge        = errors.New("bill exceeds maximum size")
	ErrInvalidURL      = errors.New("bill url does not belong to this store")
)

// Store keeps uploaded bills and hands back a URL for each.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// CheckContentType accepts images and PDFs only.
func CheckContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "image/") || ct == "application/pdf" {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
}

// ObjectName builds YYYY/MM/expense_<unix millis>.<ext> from the upload time
// and the client file name. Files without an extension get "bin".
func ObjectName(now time.Time, filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filepath.Base(filename))), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%04d/%02d/expense_%d.%s", now.Year(), int(now.Month()), now.UnixMilli(), ext)
}

// ReadLimited reads r fully, failing with ErrTooLarge past MaxSize.
func ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read bill: %w", err)
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// FSStore writes bills below a local directory and serves them from BaseURL.
type FSStore struct {
	dir     string
	baseURL string
}

func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create bill directory: %w", err)
	}
	return &FSStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory of the store.
func (s *FSStore) Dir() string { return s.dir }

// BaseURL returns the URL prefix under which bills are served.
func (s *FSStore) BaseURL() string { return s.baseURL }

func (s *FSStore) Put(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := CheckContentType(contentType); err != nil {
		return "", err
	}
	rel, err := cleanName(name)
	if err != nil {
		return "", err
	}
	data, err := ReadLimited(r)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create bill directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("write bill: %w", err)
	}
	return s.baseURL + "/" + rel, nil
}

// Delete removes the bill behind url. Missing files are not an error.
func (s *FSStore) Delete(_ context.Context, url string) error {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}
	rel, err := cleanName(strings.TrimPrefix(url, prefix))
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove bill: %w", err)
	}
	return nil
}

func cleanName(name string) (string, error) {
	rel := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if rel == "" || rel == "." {
		return "", fmt.Errorf("%w: empty object name", ErrInvalidURL)
	}
	return rel, nil
}

var _ Store = (*FSStore)(nil)
