// Package merge reconciles per-chunk extraction results into one record.
// Scalars resolve by confidence, lists concatenate and deduplicate,
// dates normalize, timelines sort. Every contributing source is kept in
// the record's metadata, pre-deduplication, for auditability.
package merge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/distill/internal/core/dedupe"
	"github.com/agenthands/distill/internal/core/events"
	"github.com/agenthands/distill/internal/core/model"
	"github.com/agenthands/distill/internal/core/temporal"
)

type Merger struct {
	Dedupe    *dedupe.Deduplicator
	Dates     *temporal.DateNormalizer
	Timeline  *temporal.TimelineBuilder
	Threshold float64
	Events    events.Listener
	Log       *zap.Logger
}

func NewMerger(deduplicator *dedupe.Deduplicator, dates *temporal.DateNormalizer, timeline *temporal.TimelineBuilder, threshold float64, listener events.Listener, log *zap.Logger) *Merger {
	if listener == nil {
		listener = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{
		Dedupe:    deduplicator,
		Dates:     dates,
		Timeline:  timeline,
		Threshold: threshold,
		Events:    listener,
		Log:       log,
	}
}

// triple is one chunk's contribution to a field.
type triple struct {
	value      interface{}
	chunkIndex int
	confidence float64
}

// Merge reconciles chunkResults into one record containing every
// declared field. Wrong-shape values are a contract violation from the
// extractor: they are reported in the record's issues and skipped, but
// never abort the rest of the batch.
func (m *Merger) Merge(ctx context.Context, chunkResults []model.ChunkResult, specs []model.FieldSpec) model.MergedRecord {
	m.Events.MergeStarted(len(specs))

	record := model.MergedRecord{
		Fields:   make(map[string]interface{}, len(specs)),
		Metadata: make(map[string][]model.FieldSource, len(specs)),
	}

	for _, spec := range specs {
		triples, issues := m.collect(chunkResults, spec)
		record.Issues = append(record.Issues, issues...)

		sources := make([]model.FieldSource, 0, len(triples))
		for _, tr := range triples {
			sources = append(sources, model.FieldSource{
				ChunkIndex: tr.chunkIndex,
				Confidence: tr.confidence,
			})
		}
		record.Metadata[spec.Name] = sources

		record.Fields[spec.Name] = m.resolve(ctx, spec, triples, &record)
	}

	m.Events.MergeFinished(len(specs))
	return record
}

// collect gathers the (value, chunk index, confidence) triples for one
// field, in ascending chunk order, dropping wrong-shape values.
func (m *Merger) collect(chunkResults []model.ChunkResult, spec model.FieldSpec) ([]triple, []string) {
	var triples []triple
	var issues []string

	for _, result := range chunkResults {
		value, ok := result.Fields[spec.Name]
		if !ok || value == nil {
			continue
		}

		if issue := checkShape(spec, value, result.ChunkIndex); issue != "" {
			m.Log.Warn("field value has wrong shape for its kind",
				zap.String("field", spec.Name),
				zap.Int("chunk", result.ChunkIndex))
			issues = append(issues, issue)
			continue
		}

		triples = append(triples, triple{
			value:      value,
			chunkIndex: result.ChunkIndex,
			confidence: result.Confidence(),
		})
	}

	return triples, issues
}

func (m *Merger) resolve(ctx context.Context, spec model.FieldSpec, triples []triple, record *model.MergedRecord) interface{} {
	if spec.IsList() {
		return m.resolveList(ctx, spec, triples, record)
	}
	return m.resolveScalar(ctx, spec, triples)
}

// resolveScalar picks the highest-confidence value; ties go to the
// lowest chunk index (first seen wins, deterministically). Date-kind
// values are normalized before resolution; an unparseable date still
// participates with its original string.
func (m *Merger) resolveScalar(ctx context.Context, spec model.FieldSpec, triples []triple) interface{} {
	switch len(triples) {
	case 0:
		return nil
	case 1:
		return triples[0].value
	}

	if spec.Kind == model.KindDate {
		for i, tr := range triples {
			raw, _ := tr.value.(string)
			if normalized, ok := m.Dates.Normalize(ctx, raw); ok {
				triples[i].value = normalized
			}
		}
	}

	best := triples[0]
	for _, tr := range triples[1:] {
		if tr.confidence > best.confidence {
			best = tr
		}
	}
	return best.value
}

// resolveList concatenates all contributions (intra-chunk order kept,
// chunk order ascending), deduplicates, and for timeline fields sorts
// the surviving events chronologically.
func (m *Merger) resolveList(ctx context.Context, spec model.FieldSpec, triples []triple, record *model.MergedRecord) interface{} {
	concatenated := make([]interface{}, 0)
	for _, tr := range triples {
		concatenated = append(concatenated, tr.value.([]interface{})...)
	}

	deduped := m.Dedupe.Dedupe(ctx, concatenated, m.Threshold)

	if spec.Kind != model.KindTimeline {
		return deduped
	}

	timelineEvents := make([]model.TimelineEvent, 0, len(deduped))
	for _, item := range deduped {
		ev, ok := item.(map[string]interface{})
		if !ok {
			record.Issues = append(record.Issues,
				fmt.Sprintf("field %q: timeline item is not an object (%T)", spec.Name, item))
			continue
		}
		timelineEvents = append(timelineEvents, model.TimelineEvent(ev))
	}

	sorted := m.Timeline.Build(ctx, timelineEvents)
	out := make([]interface{}, len(sorted))
	for i, ev := range sorted {
		out[i] = map[string]interface{}(ev)
	}
	return out
}

// checkShape validates a raw value against its declared kind. It returns
// a human-readable issue string, or "" when the shape is acceptable.
func checkShape(spec model.FieldSpec, value interface{}, chunkIndex int) string {
	_, isList := value.([]interface{})

	if spec.IsList() && !isList {
		return fmt.Sprintf("field %q: chunk %d produced %T, want a list", spec.Name, chunkIndex, value)
	}
	if !spec.IsList() && isList {
		return fmt.Sprintf("field %q: chunk %d produced a list, want a %s", spec.Name, chunkIndex, spec.Kind)
	}
	if spec.Kind == model.KindDate {
		if _, isString := value.(string); !isString {
			return fmt.Sprintf("field %q: chunk %d produced %T, want a date string", spec.Name, chunkIndex, value)
		}
	}
	return ""
}
