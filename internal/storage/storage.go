// Package storage uploads images to the object store and returns public URLs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	FolderProducts      = "products"
	FolderPaymentProofs = "payment-proofs"
	FolderCategories    = "categories"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeName strips path components and characters that are unsafe in
// object names.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "file"
	}
	return name
}

// Local writes uploads below a directory that the HTTP server exposes under
// /uploads.
type Local struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

func (l *Local) Upload(ctx context.Context, data []byte, filename, _ string, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder = SanitizeName(folder)
	target := filepath.Join(l.dir, folder)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("storage: create folder %s: %w", folder, err)
	}

	name := fmt.Sprintf("%d-%s", l.now().UnixNano(), SanitizeName(filename))
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", l.baseURL, folder, name), nil
}
