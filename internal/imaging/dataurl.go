// Package imaging turns images from local files, remote URLs or uploaded
// bytes into self-contained data URLs for chat requests.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotFound is returned when a local image path does not name a regular file.
	ErrNotFound = errors.New("image file not found")
	// ErrUnsupportedType is returned for extensions outside AllowedExtensions.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when a remote image exceeds MaxRemoteBytes.
	ErrTooLarge = errors.New("image too large")
)

// AllowedExtensions lists the raster formats accepted for upload, sorted.
var AllowedExtensions = []string{"bmp", "gif", "jpeg", "jpg", "png", "webp"}

const userAgent = "Mozilla/5.0 (compatible; levelup)"

// MaxRemoteBytes bounds a single remote image download.
const MaxRemoteBytes = 20 << 20

// Encode builds a data URL from a MIME type and raw bytes.
func Encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// mimeForExtension maps an allowed extension (without the dot) to its MIME type.
func mimeForExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !slices.Contains(AllowedExtensions, ext) {
		return "", false
	}
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "image/" + ext, true
}

// FromFile reads a local image and returns it as a data URL.
func FromFile(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	ext := strings.TrimPrefix(filepath.Ext(p), ".")
	mime, ok := mimeForExtension(ext)
	if !ok {
		return "", fmt.Errorf("%w: .%s (allowed: %s)", ErrUnsupportedType, strings.ToLower(ext), strings.Join(AllowedExtensions, ", "))
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return Encode(mime, data), nil
}

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetch downloads a remote resource and returns its body.
func Fetch(ctx context.Context, client Doer, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", rawURL, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxRemoteBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > MaxRemoteBytes {
		return nil, fmt.Errorf("fetching %s: %w (over %d bytes)", rawURL, ErrTooLarge, MaxRemoteBytes)
	}
	return data, nil
}

// FromURL downloads a remote image and inlines it. The MIME type comes from
// the URL's extension, then from the content, and defaults to image/jpeg.
func FromURL(ctx context.Context, client Doer, rawURL string) (string, error) {
	data, err := Fetch(ctx, client, rawURL)
	if err != nil {
		return "", err
	}

	mime, ok := mimeForExtension(path.Ext(urlPath(rawURL)))
	if !ok {
		if sniffed := mimetype.Detect(data); strings.HasPrefix(sniffed.String(), "image/") {
			mime = sniffed.String()
		} else {
			mime = "image/jpeg"
		}
	}
	return Encode(mime, data), nil
}

// FromBytes inlines an uploaded bitmap. Images the standard decoders
// understand are normalised to RGB JPEG; other allowed formats are passed
// through with their sniffed MIME type.
func FromBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrNotFound)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, toRGBA(img), &jpeg.Options{Quality: 90}); err != nil {
			return "", fmt.Errorf("encoding jpeg: %w", err)
		}
		return Encode("image/jpeg", buf.Bytes()), nil
	}

	sniffed := mimetype.Detect(data)
	if mime, ok := mimeForExtension(sniffed.Extension()); ok {
		return Encode(mime, data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, sniffed.String())
}

// PassThrough returns a remote URL unchanged so the service fetches it by
// reference.
func PassThrough(rawURL string) string {
	return rawURL
}

// IsRemote reports whether s is an http(s) URL.
func IsRemote(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve turns console input into a data URL: URLs are downloaded, anything
// else is treated as a local path with ~ expanded.
func Resolve(ctx context.Context, client Doer, input string) (string, error) {
	input = strings.TrimSpace(input)
	if IsRemote(input) {
		return FromURL(ctx, client, input)
	}
	return FromFile(expandHome(input))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func urlPath(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return rawURL
}

// toRGBA flattens any image (including paletted or alpha images) onto an
// opaque RGBA canvas.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}
