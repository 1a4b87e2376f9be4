package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"proposal-generator/internal/processor"
	"proposal-generator/internal/proposal"
)

// TemplateService resolves proposal types to their template files. Templates
// are read-only; every generation works on its own temporary copy.
type TemplateService struct {
	registry *proposal.Registry
	dir      string
	logger   *zap.Logger
}

func NewTemplateService(registry *proposal.Registry, dir string, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		registry: registry,
		dir:      dir,
		logger:   logger,
	}
}

func (s *TemplateService) Proposals() []proposal.Config {
	return s.registry.List()
}

func (s *TemplateService) Config(proposalType string) (proposal.Config, error) {
	cfg, ok := s.registry.Get(proposalType)
	if !ok {
		return proposal.Config{}, fmt.Errorf("%w: %s", ErrUnknownProposal, proposalType)
	}
	return cfg, nil
}

func (s *TemplateService) TemplatePath(cfg proposal.Config) (string, error) {
	path := filepath.Join(s.dir, cfg.Template)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, cfg.Template)
	}
	return path, nil
}

// Placeholders lists the tokens present in the template of proposalType.
func (s *TemplateService) Placeholders(proposalType string) ([]string, error) {
	cfg, err := s.Config(proposalType)
	if err != nil {
		return nil, err
	}
	path, err := s.TemplatePath(cfg)
	if err != nil {
		return nil, err
	}

	proc := processor.NewDocxProcessor(path, s.logger)
	if err := proc.Open(); err != nil {
		return nil, fmt.Errorf("failed to process template: %w", err)
	}
	defer proc.Cleanup()

	return proc.ExtractPlaceholders()
}

// createWorkingCopy copies the template into a temp file the caller removes.
func (s *TemplateService) createWorkingCopy(templatePath string) (string, error) {
	src, err := os.Open(templatePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tempFile, err := os.CreateTemp("", "proposal-*.docx")
	if err != nil {
		return "", err
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, src); err != nil {
		os.Remove(tempFile.Name())
		return "", err
	}

	return tempFile.Name(), nil
}

func (s *TemplateService) cleanupTempFile(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove working copy", zap.String("file", filePath), zap.Error(err))
	}
}
