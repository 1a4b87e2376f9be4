package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"proposal-generator/internal/metrics"
	"proposal-generator/internal/models"
	"proposal-generator/internal/repository"
	"proposal-generator/internal/storage"
)

// DocumentService serves and expires generated documents.
type DocumentService struct {
	store   storage.BlobStore
	repo    repository.DocumentRepository
	pdf     PDFConverter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDocumentService accepts a nil pdf converter; PDF downloads then fail
// with ErrPDFUnavailable.
func NewDocumentService(store storage.BlobStore, repo repository.DocumentRepository, pdf PDFConverter, m *metrics.Metrics, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		store:   store,
		repo:    repo,
		pdf:     pdf,
		metrics: m,
		logger:  logger,
	}
}

func (s *DocumentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	document, err := s.repo.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return document, nil
}

// OpenDocument returns the stored DOCX and the name to download it under.
func (s *DocumentService) OpenDocument(ctx context.Context, documentID string) (io.ReadCloser, *models.Document, error) {
	document, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.ReadFile(ctx, document.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	return reader, document, nil
}

// OpenPDF converts the stored DOCX. The returned filename ends in .pdf.
func (s *DocumentService) OpenPDF(ctx context.Context, documentID string) (io.ReadCloser, string, error) {
	if s.pdf == nil {
		return nil, "", ErrPDFUnavailable
	}

	reader, document, err := s.OpenDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	pdf, err := s.pdf.ConvertDocxToPDF(ctx, reader, document.Filename, document.Landscape)
	if err != nil {
		return nil, "", fmt.Errorf("failed to convert document to PDF: %w", err)
	}
	return pdf, strings.TrimSuffix(document.Filename, ".docx") + ".pdf", nil
}

func (s *DocumentService) MarkDownloaded(ctx context.Context, documentID string) {
	if err := s.repo.UpdateStatus(ctx, documentID, models.StatusDownloaded); err != nil {
		s.logger.Warn("failed to update document status", zap.String("document_id", documentID), zap.Error(err))
	}
}

func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) error {
	document, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteFile(ctx, document.StoragePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		// the record is still removed so retention does not retry forever
		s.logger.Warn("failed to delete stored file",
			zap.String("document_id", documentID), zap.String("path", document.StoragePath), zap.Error(err))
	}

	if err := s.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}
	return nil
}

// PurgeExpired deletes every document created before cutoff and reports how
// many were removed.
func (s *DocumentService) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	documents, err := s.repo.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired documents: %w", err)
	}

	purged := 0
	for _, document := range documents {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if err := s.DeleteDocument(ctx, document.ID); err != nil {
			s.logger.Error("failed to purge document", zap.String("document_id", document.ID), zap.Error(err))
			continue
		}
		purged++
	}

	s.metrics.Purged(purged)
	return purged, nil
}

// ListDocuments pages through generated documents, newest first.
func (s *DocumentService) ListDocuments(ctx context.Context, opts repository.ListOptions) ([]models.Document, int64, error) {
	documents, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, total, nil
}
