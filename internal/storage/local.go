package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects as files under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) path(objectName string) (string, error) {
	clean := filepath.Clean("/" + objectName)
	if clean == "/" || strings.Contains(objectName, "..") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *LocalStore) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	path, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}
	size, err := io.Copy(out, reader)
	if err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close object: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		Location:   path,
		Size:       size,
	}, nil
}

func (l *LocalStore) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	path, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *LocalStore) DeleteFile(ctx context.Context, objectName string) error {
	path, err := l.path(objectName)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (l *LocalStore) Close() error {
	return nil
}
