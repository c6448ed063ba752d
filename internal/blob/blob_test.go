package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		filename string
		want     string
	}{
		{"receipt.JPG", "2024/03/expense_1709805600000.jpg"},
		{"scan.final.pdf", "2024/03/expense_1709805600000.pdf"},
		{"noext", "2024/03/expense_1709805600000.bin"},
		{"../../etc/passwd.png", "2024/03/expense_1709805600000.png"},
	}
	for _, tt := range tests {
		if got := ObjectName(now, tt.filename); got != tt.want {
			t.Errorf("ObjectName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestCheckContentType(t *testing.T) {
	for _, ok := range []string{"image/png", "image/jpeg", "application/pdf", "IMAGE/WEBP", "application/pdf; charset=binary"} {
		if err := CheckContentType(ok); err != nil {
			t.Errorf("%q should be accepted: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "text/html", "application/zip"} {
		if err := CheckContentType(bad); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("%q should be rejected, got %v", bad, err)
		}
	}
}

func TestFSStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(filepath.Join(dir, "bills"), "/bills/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	url, err := s.Put(ctx, "2024/03/expense_1.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/bills/2024/03/expense_1.png" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "bills", "2024", "03", "expense_1.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("file not written: %q err=%v", data, err)
	}

	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bills", "2024", "03", "expense_1.png")); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
}

func TestFSStoreRejects(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "/bills")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Put(ctx, "a.txt", "text/plain", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	big := bytes.NewReader(make([]byte, MaxSize+1))
	if _, err := s.Put(ctx, "big.pdf", "application/pdf", big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if err := s.Delete(ctx, "https://elsewhere/x.png"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestFSStoreKeepsWritesInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "bills")
	s, err := NewFSStore(dir, "/bills")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := s.Put(context.Background(), "../../escape.png", "image/png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/bills/escape.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Fatalf("file should be inside store dir: %v", err)
	}
}
