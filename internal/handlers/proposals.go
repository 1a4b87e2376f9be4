package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"proposal-generator/internal/pricing"
	"proposal-generator/internal/proposal"
	"proposal-generator/internal/services"
)

var signatureExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

type ProposalSummary struct {
	Name        string                  `json:"name"`
	Country     bool                    `json:"country"`
	Designation bool                    `json:"designation"`
	Strategy    pricing.Strategy        `json:"strategy"`
	Pricing     []proposal.PricingField `json:"pricing"`
	Team        []proposal.Role         `json:"team"`
	Special     []SpecialFieldSummary   `json:"special"`
}

type SpecialFieldSummary struct {
	Name  string             `json:"name"`
	Label string             `json:"label"`
	Token string             `json:"token"`
	Kind  proposal.FieldKind `json:"kind"`
}

type PlaceholderResponse struct {
	Proposal     string   `json:"proposal"`
	Placeholders []string `json:"placeholders"`
}

type GenerateResponse struct {
	DocumentID  string            `json:"document_id"`
	Filename    string            `json:"filename"`
	DownloadURL string            `json:"download_url"`
	Landscape   bool              `json:"landscape"`
	RowsRemoved int               `json:"rows_removed"`
	Pricing     pricing.Breakdown `json:"pricing"`
	Warnings    []string          `json:"warnings"`
	Message     string            `json:"message"`
}

type ProposalHandler struct {
	templates      *services.TemplateService
	proposals      *services.ProposalService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewProposalHandler(templates *services.TemplateService, proposals *services.ProposalService, maxUploadBytes int64, logger *zap.Logger) *ProposalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalHandler{
		templates:      templates,
		proposals:      proposals,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *ProposalHandler) ListProposals(c *gin.Context) {
	configs := h.templates.Proposals()
	summaries := make([]ProposalSummary, 0, len(configs))
	for _, cfg := range configs {
		summary := ProposalSummary{
			Name:        cfg.Name,
			Country:     cfg.Country,
			Designation: cfg.Designation,
			Strategy:    cfg.Strategy,
			Pricing:     cfg.Pricing,
			Team:        cfg.Team.Roles(),
		}
		for _, f := range cfg.Special {
			summary.Special = append(summary.Special, SpecialFieldSummary{
				Name:  f.Name,
				Label: f.Label,
				Token: f.Token(),
				Kind:  f.Kind,
			})
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"proposals": summaries})
}

func (h *ProposalHandler) GetPlaceholders(c *gin.Context) {
	proposalType := c.Param("type")

	placeholders, err := h.templates.Placeholders(proposalType)
	if err != nil {
		h.respondError(c, err, "Failed to extract placeholders")
		return
	}

	c.JSON(http.StatusOK, PlaceholderResponse{
		Proposal:     proposalType,
		Placeholders: placeholders,
	})
}

func (h *ProposalHandler) Generate(c *gin.Context) {
	proposalType := c.Param("type")
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var (
		form      services.GenerationForm
		signature []byte
		err       error
	)
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		form, signature, err = h.bindMultipart(c)
	} else {
		err = c.ShouldBindJSON(&form)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	req, err := form.ToRequest(proposalType, signature, time.Now())
	if err != nil {
		h.respondError(c, err, "Failed to generate proposal")
		return
	}

	result, err := h.proposals.Generate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to generate proposal")
		return
	}

	c.JSON(http.StatusCreated, GenerateResponse{
		DocumentID:  result.Document.ID,
		Filename:    result.Document.Filename,
		DownloadURL: fmt.Sprintf("/api/v1/documents/%s/download", result.Document.ID),
		Landscape:   result.Document.Landscape,
		RowsRemoved: result.RowsRemoved,
		Pricing:     result.Pricing,
		Warnings:    result.Warnings,
		Message:     "Proposal generated successfully",
	})
}

func (h *ProposalHandler) bindMultipart(c *gin.Context) (services.GenerationForm, []byte, error) {
	var form services.GenerationForm

	payload := c.PostForm("payload")
	if payload == "" {
		return form, nil, errors.New("payload field is required")
	}
	if err := json.Unmarshal([]byte(payload), &form); err != nil {
		return form, nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&form); err != nil {
		return form, nil, err
	}

	file, header, err := c.Request.FormFile("signature")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return form, nil, fmt.Errorf("failed to read signature: %w", err)
	}
	defer file.Close()

	if !signatureExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return form, nil, errors.New("signature must be a .png, .jpg or .jpeg file")
	}

	signature, err := io.ReadAll(file)
	if err != nil {
		return form, nil, fmt.Errorf("failed to read signature: %w", err)
	}
	return form, signature, nil
}

// respondError maps service errors onto status codes. Anything unexpected is
// logged and reported with fallback only.
func (h *ProposalHandler) respondError(c *gin.Context, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, services.ErrUnknownProposal):
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal type not found"})
	case errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Template for this proposal is not available"})
	case errors.Is(err, services.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature image could not be read", "field": "signature"})
	default:
		h.logger.Error(fallback, zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
