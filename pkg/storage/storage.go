// Package storage holds the object store contract shared by the GCS and local backends.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the header window mimetype inspects by default.
const sniffLen = 3072

// ErrNotFound is returned by Delete when the object is already gone.
var ErrNotFound = errors.New("storage: object not found")

// Object describes a stored binary.
type Object struct {
	Key      string `json:"key"`
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// ObjectStore accepts uploaded binaries and returns a retrievable path.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Sniff detects the media type from the leading bytes and returns a reader
// that still yields the full body.
func Sniff(body io.Reader) (string, io.Reader, error) {
	if body == nil {
		return "", nil, errors.New("storage: body is required")
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	return baseMime(detected.String()), io.MultiReader(bytes.NewReader(head), body), nil
}

// Extension returns the canonical file extension for a media type, or "".
func Extension(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil {
		return m.Extension()
	}
	return ""
}

// CleanKey normalizes an object key and rejects traversal.
func CleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(key, "..") {
		return "", errors.New("storage: invalid object key")
	}
	return cleaned, nil
}

func baseMime(value string) string {
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}
