package server

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/distill/internal/archive"
	"github.com/agenthands/distill/internal/config"
	"github.com/agenthands/distill/internal/core"
	"github.com/agenthands/distill/internal/core/model"
	"github.com/agenthands/distill/internal/llm"
)

type Server struct {
	Distiller *core.Distiller
	Archive   *archive.Store
	Log       *zap.Logger
}

// NewServer assembles the service from config, with env-var overrides
// for deployment. The archive is optional: without one, records are
// returned to the caller and nothing is persisted.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	applyEnvOverrides(cfg)

	llmClient, embedderClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		return nil, err
	}
	if embedderClient == nil {
		log.Warn("provider has no embedding support; deduplication degrades to exact equality",
			zap.String("provider", cfg.LLM.Provider))
	}

	var store *archive.Store
	if cfg.Archive.Enabled {
		driver, err := archive.NewMemgraphDriver(cfg.Archive.URI, cfg.Archive.User, cfg.Archive.Password)
		if err != nil {
			return nil, err
		}
		if err := driver.BuildIndices(context.Background()); err != nil {
			log.Warn("failed to build archive indices", zap.Error(err))
		}
		store = archive.NewStore(driver)
	}

	return &Server{
		Distiller: core.NewDistiller(cfg, llmClient, embedderClient, log),
		Archive:   store,
		Log:       log,
	}, nil
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		cfg.Archive.URI = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		cfg.Archive.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		cfg.Archive.Password = v
	}

	// Default to Ollama when nothing is configured.
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/extract", s.Extract)
	r.GET("/healthz", s.Healthz)

	return r
}

type ExtractRequest struct {
	// Name labels the document in logs and the archive.
	Name string `json:"name"`
	// Document is raw text, chunked server-side. Chunks, when supplied,
	// take precedence and are used as-is.
	Document string            `json:"document"`
	Chunks   []string          `json:"chunks"`
	Fields   []model.FieldSpec `json:"fields" binding:"required"`
}

func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Fields) == 0 || (req.Document == "" && len(req.Chunks) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fields and document (or chunks) are required"})
		return
	}
	for _, f := range req.Fields {
		switch f.Kind {
		case model.KindScalar, model.KindList, model.KindDate, model.KindTimeline:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field kind: " + string(f.Kind)})
			return
		}
	}

	var (
		record model.MergedRecord
		chunks []model.Chunk
		err    error
	)
	if len(req.Chunks) > 0 {
		chunks = make([]model.Chunk, len(req.Chunks))
		for i, text := range req.Chunks {
			chunks[i] = model.Chunk{Index: i, Text: text}
		}
	} else {
		chunks = s.Distiller.Chunker.Split(req.Document)
	}

	record, err = s.Distiller.DistillChunks(c.Request.Context(), chunks, req.Fields)
	if err != nil {
		s.Log.Error("distillation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
		return
	}

	response := gin.H{"record": record}
	if s.Archive != nil {
		recordUUID, err := s.Archive.SaveRecord(c.Request.Context(), req.Name, len(chunks), record)
		if err != nil {
			// Archival is best-effort; the caller still gets the record.
			s.Log.Warn("failed to archive record", zap.Error(err))
		} else {
			response["record_id"] = recordUUID
		}
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
