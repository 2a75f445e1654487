// Package coordinator fans one extractor call out per chunk under a
// bounded concurrency budget. Results come back index-aligned with the
// input chunks regardless of completion order; a failed or abandoned
// chunk occupies its slot as an empty result with an error marker, so a
// partial batch never loses provenance.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/agenthands/distill/internal/core/events"
	"github.com/agenthands/distill/internal/core/extraction"
	"github.com/agenthands/distill/internal/core/model"
)

type Coordinator struct {
	Events events.Listener
}

func New(listener events.Listener) *Coordinator {
	if listener == nil {
		listener = events.Nop{}
	}
	return &Coordinator{Events: listener}
}

// Run extracts every chunk with at most maxConcurrency calls in flight.
// Per-chunk failures are recorded in their slot, never propagated; the
// only error returned is a maxConcurrency precondition violation.
//
// Cancellation: chunks still queued when ctx is cancelled are recorded
// as failed slots with the context error. In-flight calls are left to
// honor ctx themselves; Run returns once every launched call settles.
//
// Events: a chunk handed to the extractor emits ChunkStarted followed
// by exactly one of ChunkFinished or ChunkFailed. A chunk abandoned in
// the queue was never started, so it emits ChunkFailed alone.
func (c *Coordinator) Run(ctx context.Context, chunks []model.Chunk, extractor extraction.Extractor, specs []model.FieldSpec, maxConcurrency int) ([]model.ChunkResult, error) {
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("max concurrency must be >= 1, got %d", maxConcurrency)
	}

	results := make([]model.ChunkResult, len(chunks))
	sem := make(chan struct{}, maxConcurrency)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		// Acquire before launching so no more than maxConcurrency
		// goroutines ever exist for this call.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = model.FailedResult(chunk.Index, ctx.Err())
			c.Events.ChunkFailed(chunk.Index, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(slot int, chunk model.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			results[slot] = c.extractOne(ctx, chunk, extractor, specs)
		}(i, chunk)
	}

	wg.Wait()
	return results, nil
}

func (c *Coordinator) extractOne(ctx context.Context, chunk model.Chunk, extractor extraction.Extractor, specs []model.FieldSpec) model.ChunkResult {
	c.Events.ChunkStarted(chunk.Index)

	result, err := extractor.Extract(ctx, chunk.Text, specs)
	if err != nil {
		c.Events.ChunkFailed(chunk.Index, err)
		return model.FailedResult(chunk.Index, err)
	}

	result.ChunkIndex = chunk.Index
	if result.Fields == nil {
		result.Fields = map[string]interface{}{}
	}

	c.Events.ChunkFinished(chunk.Index)
	return result
}
