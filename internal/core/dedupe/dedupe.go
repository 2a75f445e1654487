// Package dedupe collapses near-duplicate list items. Text items cluster
// online against embedding representatives; anything without a text
// representation falls back to exact value equality. Order is stable:
// the first occurrence of a cluster survives.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/agenthands/distill/internal/llm"
	"go.uber.org/zap"
)

type Deduplicator struct {
	Embedder llm.EmbedderClient
	Log      *zap.Logger
}

func NewDeduplicator(embedder llm.EmbedderClient, log *zap.Logger) *Deduplicator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deduplicator{
		Embedder: embedder,
		Log:      log,
	}
}

// Dedupe reduces items, keeping first-seen representatives. A new text
// item is a duplicate when its best cosine similarity against the kept
// representatives reaches threshold (similarity >= threshold, where 1.0
// means identical). Which phrasing of two near-duplicates survives
// therefore depends on input order; the cluster count does not.
//
// Embedding failures and absent embedders degrade to equality-only
// deduplication for the affected items; Dedupe never fails.
func (d *Deduplicator) Dedupe(ctx context.Context, items []interface{}, threshold float64) []interface{} {
	if len(items) <= 1 {
		return items
	}

	kept := make([]interface{}, 0, len(items))
	seen := make(map[string]bool, len(items))

	// Representatives of text clusters, parallel slices.
	var repVectors [][]float32
	var repTexts []string

	for _, item := range items {
		key := equalityKey(item)
		if seen[key] {
			continue
		}

		text, isText := item.(string)
		if !isText || d.Embedder == nil {
			seen[key] = true
			kept = append(kept, item)
			continue
		}

		vec, err := d.Embedder.Embed(ctx, text)
		if err != nil {
			d.Log.Warn("embedding failed, keeping item on equality only",
				zap.String("item", text), zap.Error(err))
			seen[key] = true
			kept = append(kept, item)
			continue
		}

		duplicate := false
		for i, rv := range repVectors {
			if cosineSimilarity(vec, rv) >= threshold {
				d.Log.Debug("dropping near-duplicate",
					zap.String("item", text), zap.String("kept", repTexts[i]))
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		seen[key] = true
		repVectors = append(repVectors, vec)
		repTexts = append(repTexts, text)
		kept = append(kept, item)
	}

	return kept
}

// equalityKey canonicalizes an item for exact-equality comparison.
// JSON encoding keeps map keys sorted, so structurally equal objects
// collide as intended.
func equalityKey(item interface{}) string {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprintf("%#v", item)
	}
	return string(b)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
