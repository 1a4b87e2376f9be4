package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"proposal-generator/internal/models"
)

type documentOpener interface {
	OpenDocument(ctx context.Context, documentID string) (io.ReadCloser, *models.Document, error)
}

// exportDocument copies a generated document to dir under its download name
// and returns the written path.
func exportDocument(ctx context.Context, docs documentOpener, documentID, dir string) (string, error) {
	reader, document, err := docs.OpenDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(document.Filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
