package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxDimension = 1600
	jpegQuality         = 82
	maxFetchBytes       = 20 << 20
)

// Optimize decodes an image, fits it within maxDim on its long edge and
// re-encodes it as JPEG.
func Optimize(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var out image.Image = img
	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		out = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Prepare optimizes data when possible. Formats the decoder does not know
// are passed through untouched.
func Prepare(data []byte, filename, contentType string) ([]byte, string, string) {
	optimized, err := Optimize(data, DefaultMaxDimension)
	if err != nil {
		log.Debug().Err(err).Str("filename", filename).Msg("storage: uploading original bytes")
		return data, filename, contentType
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return optimized, base + ".jpg", "image/jpeg"
}

// IsImage reports whether contentType names an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// Fetch downloads an image from url.
func Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
