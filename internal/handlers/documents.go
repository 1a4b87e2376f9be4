package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposal-generator/internal/models"
	"proposal-generator/internal/repository"
	"proposal-generator/internal/services"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

type DocumentSummary struct {
	ID           string            `json:"id"`
	ProposalType string            `json:"proposal_type"`
	ClientName   string            `json:"client_name"`
	Filename     string            `json:"filename"`
	FileSize     int64             `json:"file_size"`
	Status       string            `json:"status"`
	Data         map[string]string `json:"data,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type DocumentsResponse struct {
	Documents  []DocumentSummary `json:"documents"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type DocumentHandler struct {
	documents *services.DocumentService
	logger    *zap.Logger
}

func NewDocumentHandler(documents *services.DocumentService, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// ListDocuments returns generated documents with the values that filled them.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	documents, total, err := h.documents.ListDocuments(c.Request.Context(), repository.ListOptions{
		ProposalType: c.Query("proposal"),
		Limit:        limit,
		Offset:       (page - 1) * limit,
	})
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	summaries := make([]DocumentSummary, 0, len(documents))
	for _, doc := range documents {
		summary := DocumentSummary{
			ID:           doc.ID,
			ProposalType: doc.ProposalType,
			ClientName:   doc.ClientName,
			Filename:     doc.Filename,
			FileSize:     doc.FileSize,
			Status:       doc.Status,
			CreatedAt:    doc.CreatedAt,
		}
		// stored JSON is written by this service; unreadable rows just omit it
		_ = json.Unmarshal([]byte(doc.Data), &summary.Data)
		_ = json.Unmarshal([]byte(doc.Warnings), &summary.Warnings)
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, DocumentsResponse{
		Documents:  summaries,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document ID is required"})
		return
	}

	var (
		reader      io.ReadCloser
		filename    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "docx") {
	case "docx":
		var doc *models.Document
		reader, doc, err = h.documents.OpenDocument(c.Request.Context(), documentID)
		if err == nil {
			filename, contentType = doc.Filename, services.DocxMimeType
		}
	case "pdf":
		reader, filename, err = h.documents.OpenPDF(c.Request.Context(), documentID)
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be docx or pdf"})
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		case errors.Is(err, services.ErrPDFUnavailable):
			c.JSON(http.StatusNotImplemented, gin.H{"error": "PDF export is not available"})
		default:
			h.logger.Error("failed to open document", zap.String("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to download document"})
		}
		return
	}
	defer reader.Close()

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Warn("download interrupted", zap.String("document_id", documentID), zap.Error(err))
		return
	}
	h.documents.MarkDownloaded(c.Request.Context(), documentID)
}
