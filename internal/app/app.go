// Package app wires configuration into the services shared by the server and
// the command line tool.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"proposal-generator/internal"
	"proposal-generator/internal/config"
	"proposal-generator/internal/metrics"
	"proposal-generator/internal/proposal"
	"proposal-generator/internal/repository"
	"proposal-generator/internal/services"
	"proposal-generator/internal/storage"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Store     storage.BlobStore
	Templates *services.TemplateService
	Proposals *services.ProposalService
	Documents *services.DocumentService
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	registry, err := loadRegistry(cfg.Proposals.File)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo repository.DocumentRepository
	if cfg.Database.Enabled() {
		if err := internal.InitDB(cfg, logger); err != nil {
			store.Close()
			return nil, err
		}
		repo = repository.NewGormDocumentRepository(internal.DB)
	} else {
		logger.Warn("DB_HOST not set, document records are kept in memory")
		repo = repository.NewMemoryDocumentRepository()
	}

	var pdf services.PDFConverter
	if cfg.Gotenberg.URL != "" {
		pdfService, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, logger)
		if err != nil {
			store.Close()
			internal.CloseDB()
			return nil, err
		}
		pdf = pdfService
	}

	m := metrics.New()
	templates := services.NewTemplateService(registry, cfg.Proposals.TemplatesDir, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Store:     store,
		Templates: templates,
		Proposals: services.NewProposalService(templates, store, repo, m, logger),
		Documents: services.NewDocumentService(store, repo, pdf, m, logger),
	}, nil
}

func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("failed to close storage", zap.Error(err))
	}
	if err := internal.CloseDB(); err != nil {
		a.Logger.Warn("failed to close database", zap.Error(err))
	}
}

func loadRegistry(path string) (*proposal.Registry, error) {
	if path == "" {
		return proposal.DefaultRegistry()
	}
	return proposal.LoadRegistryFile(path)
}

func newStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.CredentialsPath)
	case "local":
		return storage.NewLocalStore(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
