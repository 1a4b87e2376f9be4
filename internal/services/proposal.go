package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proposal-generator/internal/metrics"
	"proposal-generator/internal/models"
	"proposal-generator/internal/pricing"
	"proposal-generator/internal/processor"
	"proposal-generator/internal/repository"
	"proposal-generator/internal/storage"
)

const DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type GenerationResult struct {
	Document    *models.Document       `json:"document"`
	Pricing     pricing.Breakdown      `json:"pricing"`
	Stats       processor.ReplaceStats `json:"stats"`
	RowsRemoved int                    `json:"rows_removed"`
	Warnings    []string               `json:"warnings"`
}

type ProposalService struct {
	templates *TemplateService
	store     storage.BlobStore
	repo      repository.DocumentRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewProposalService(templates *TemplateService, store storage.BlobStore, repo repository.DocumentRepository, m *metrics.Metrics, logger *zap.Logger) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{
		templates: templates,
		store:     store,
		repo:      repo,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate builds, stores and records one proposal document.
func (s *ProposalService) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	start := s.now()
	result, err := s.generate(ctx, req)
	if err != nil {
		s.metrics.Failed(req.ProposalType, failureReason(err))
		return nil, err
	}
	s.metrics.Generated(req.ProposalType, s.now().Sub(start).Seconds(), result.RowsRemoved, len(result.Warnings))
	return result, nil
}

func (s *ProposalService) generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	cfg, err := s.templates.Config(req.ProposalType)
	if err != nil {
		return nil, err
	}
	templatePath, err := s.templates.TemplatePath(cfg)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(cfg); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}

	placeholders, breakdown, err := BuildPlaceholders(cfg, req)
	if err != nil {
		return nil, err
	}

	workFile, err := s.templates.createWorkingCopy(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create working copy: %w", err)
	}
	defer s.templates.cleanupTempFile(workFile)

	proc := processor.NewDocxProcessor(workFile, s.logger)
	if err := proc.Open(); err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer proc.Cleanup()

	stats, err := proc.FindAndReplaceInDocument(placeholders)
	if err != nil {
		return nil, fmt.Errorf("failed to replace placeholders: %w", err)
	}

	rowsRemoved := 0
	if cfg.RowCleanup != nil {
		if rowsRemoved, err = proc.RemoveEmptyRows(*cfg.RowCleanup); err != nil {
			return nil, fmt.Errorf("failed to remove empty rows: %w", err)
		}
	}

	var warnings []string
	if len(req.Signature) > 0 {
		found, err := proc.InsertImage(TokenSignature, req.Signature)
		if err != nil {
			if errors.Is(err, processor.ErrInvalidImage) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
			}
			return nil, fmt.Errorf("failed to insert signature: %w", err)
		}
		if !found {
			warnings = append(warnings, fmt.Sprintf("signature placeholder %s not found", TokenSignature))
		}
	}

	landscape, err := proc.DetectOrientation()
	if err != nil {
		return nil, fmt.Errorf("failed to read page layout: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to create output document: %w", err)
	}

	documentID := uuid.New().String()
	filename := BuildFilename(cfg.Name, req.Client.Name, req.Date, documentID[:8])
	objectName := storage.GenerateDocumentObjectName(documentID, filename)

	upload, err := s.store.UploadFile(ctx, &buf, objectName, DocxMimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	dataJSON, err := json.Marshal(placeholders.Values())
	if err != nil {
		s.store.DeleteFile(ctx, objectName)
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		s.store.DeleteFile(ctx, objectName)
		return nil, fmt.Errorf("failed to marshal warnings: %w", err)
	}

	document := &models.Document{
		ID:           documentID,
		ProposalType: cfg.Name,
		ClientName:   req.Client.Name,
		Filename:     filename,
		StoragePath:  objectName,
		FileSize:     upload.Size,
		MimeType:     DocxMimeType,
		Landscape:    landscape,
		Data:         string(dataJSON),
		Warnings:     string(warningsJSON),
		Status:       models.StatusCompleted,
	}
	if err := s.repo.Create(ctx, document); err != nil {
		s.store.DeleteFile(ctx, objectName)
		return nil, fmt.Errorf("failed to save document metadata: %w", err)
	}

	s.logger.Info("proposal generated",
		zap.String("document_id", documentID),
		zap.String("proposal", cfg.Name),
		zap.Int("paragraphs_changed", stats.Changed),
		zap.Int("rows_removed", rowsRemoved),
		zap.Strings("warnings", warnings),
	)

	return &GenerationResult{
		Document:    document,
		Pricing:     breakdown,
		Stats:       stats,
		RowsRemoved: rowsRemoved,
		Warnings:    warnings,
	}, nil
}

func failureReason(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrUnknownProposal):
		return "unknown_proposal"
	case errors.Is(err, ErrTemplateNotFound):
		return "template_missing"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	default:
		return "internal"
	}
}
