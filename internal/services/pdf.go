package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
	"go.uber.org/zap"
)

// PDFConverter turns a generated DOCX into a PDF.
type PDFConverter interface {
	ConvertDocxToPDF(ctx context.Context, docxReader io.Reader, filename string, landscape bool) (io.ReadCloser, error)
}

type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

func NewPDFService(gotenbergURL string, timeoutStr string, logger *zap.Logger) (*PDFService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		logger.Warn("invalid gotenberg timeout, using default",
			zap.String("timeout", timeoutStr), zap.Duration("default", timeout), zap.Error(err))
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
		logger:     logger,
	}, nil
}

// ConvertDocxToPDF converts through LibreOffice, keeping the page orientation
// of the source document.
func (s *PDFService) ConvertDocxToPDF(ctx context.Context, docxReader io.Reader, filename string, landscape bool) (io.ReadCloser, error) {
	// each attempt needs a fresh reader
	data, err := io.ReadAll(docxReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.convert(ctx, data, filename, landscape)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger.Warn("pdf conversion attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", s.maxRetries), zap.Error(err))

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, data []byte, filename string, landscape bool) (io.ReadCloser, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := document.FromReader(filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	req := gotenberg.NewLibreOfficeRequest(doc)
	if landscape {
		req.Landscape()
	}

	resp, err := s.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}

	// the body outlives convertCtx, so buffer it before cancel runs
	defer resp.Body.Close()
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted document: %w", err)
	}
	return io.NopCloser(bytes.NewReader(pdf)), nil
}
