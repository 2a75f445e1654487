package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/distill/internal/config"
	"github.com/agenthands/distill/internal/core/chunker"
	"github.com/agenthands/distill/internal/core/coordinator"
	"github.com/agenthands/distill/internal/core/dedupe"
	"github.com/agenthands/distill/internal/core/events"
	"github.com/agenthands/distill/internal/core/extraction"
	"github.com/agenthands/distill/internal/core/merge"
	"github.com/agenthands/distill/internal/core/model"
	"github.com/agenthands/distill/internal/core/temporal"
	"github.com/agenthands/distill/internal/llm"
)

// Distiller is the document pipeline: split, fan out extraction under a
// concurrency cap, reconcile the partial results into one record.
type Distiller struct {
	Chunker        *chunker.Chunker
	Coordinator    *coordinator.Coordinator
	Extractor      extraction.Extractor
	Merger         *merge.Merger
	MaxConcurrency int
	Log            *zap.Logger
}

// NewDistiller wires the pipeline from config plus injected clients. The
// embedder may be nil: deduplication then degrades to exact equality.
func NewDistiller(cfg *config.Config, llmClient llm.LLMClient, embedder llm.EmbedderClient, log *zap.Logger) *Distiller {
	if log == nil {
		log = zap.NewNop()
	}
	listener := events.NewLogger(log)

	var dateLLM llm.LLMClient
	if cfg.Dates.LLMFallback {
		dateLLM = llmClient
	}
	dates := temporal.NewDateNormalizer(
		cfg.Dates.Layouts,
		dateLLM,
		cfg.Prompts.Date,
		time.Duration(cfg.Dates.LLMTimeoutSeconds)*time.Second,
		log,
	)

	merger := merge.NewMerger(
		dedupe.NewDeduplicator(embedder, log),
		dates,
		temporal.NewTimelineBuilder(dates),
		cfg.Dedupe.SimilarityThreshold,
		listener,
		log,
	)

	return &Distiller{
		Chunker:        chunker.New(cfg.Chunking.WindowSize, cfg.Chunking.Overlap),
		Coordinator:    coordinator.New(listener),
		Extractor:      extraction.NewLLMExtractor(llmClient, cfg.Prompts.Extraction),
		Merger:         merger,
		MaxConcurrency: cfg.Concurrency.MaxExtractions,
		Log:            log,
	}
}

// Distill splits a raw document into overlapping windows and reconciles
// the per-window extractions.
func (d *Distiller) Distill(ctx context.Context, document string, specs []model.FieldSpec) (model.MergedRecord, error) {
	return d.DistillChunks(ctx, d.Chunker.Split(document), specs)
}

// DistillChunks runs the pipeline over pre-split chunks. Per-chunk
// failures surface as empty result slots and missing contributions, not
// as an error: the pipeline favors a coherent partial record over hard
// failure.
func (d *Distiller) DistillChunks(ctx context.Context, chunks []model.Chunk, specs []model.FieldSpec) (model.MergedRecord, error) {
	d.Log.Info("distilling document",
		zap.Int("chunks", len(chunks)),
		zap.Int("fields", len(specs)))

	results, err := d.Coordinator.Run(ctx, chunks, d.Extractor, specs, d.MaxConcurrency)
	if err != nil {
		return model.MergedRecord{}, err
	}

	record := d.Merger.Merge(ctx, results, specs)

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	d.Log.Info("distillation finished",
		zap.Int("chunks", len(chunks)),
		zap.Int("failed_chunks", failed),
		zap.Int("issues", len(record.Issues)))

	return record, nil
}
