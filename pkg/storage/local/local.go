// Package local stores objects on the filesystem, served read-only under a public prefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Dj0083/final-project-sub000/pkg/storage"
)

type Store struct {
	root       string
	publicBase string
}

// New creates the root directory if needed.
func New(root, publicBase string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	if publicBase == "" {
		publicBase = "/files"
	}
	return &Store{root: root, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Root returns the directory served under the public base.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, key string, contentType string, body io.Reader) (storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return storage.Object{}, err
	}
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return storage.Object{}, err
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return storage.Object{}, fmt.Errorf("creating object dir: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return storage.Object{}, fmt.Errorf("creating object: %w", err)
	}
	size, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		return storage.Object{}, fmt.Errorf("writing object: %w", errors.Join(copyErr, closeErr))
	}

	return storage.Object{
		Key:      cleaned,
		Path:     path.Join(s.publicBase, cleaned),
		MimeType: contentType,
		Size:     size,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}
