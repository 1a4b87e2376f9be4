package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowOrigins []string
	Metrics      http.Handler
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig, proposals *ProposalHandler, documents *DocumentHandler) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "proposal-generator",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/proposals", proposals.ListProposals)
		v1.GET("/proposals/:type/placeholders", proposals.GetPlaceholders)
		v1.POST("/proposals/:type/generate", proposals.Generate)

		v1.GET("/documents", documents.ListDocuments)
		v1.GET("/documents/:documentId/download", documents.DownloadDocument)
	}

	return r
}
