// Package storage keeps generated documents until they are downloaded or expire.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Location   string `json:"location"`
	Size       int64  `json:"size"`
}

// BlobStore is implemented by GCSClient and LocalStore.
type BlobStore interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectName string) error
	Close() error
}

func GenerateDocumentObjectName(documentID, filename string) string {
	timestamp := time.Now().Unix()
	return fmt.Sprintf("documents/%s/%d_%s", documentID, timestamp, filename)
}
