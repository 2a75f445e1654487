package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/distill/internal/core/dedupe"
	"github.com/agenthands/distill/internal/core/model"
	"github.com/agenthands/distill/internal/core/temporal"
)

var dateLayouts = []string{"2006-01-02", "01/02/2006", "January 2, 2006"}

func newTestMerger(embedder *dedupe.MockEmbedder) *Merger {
	dates := temporal.NewDateNormalizer(dateLayouts, nil, "", time.Second, nil)
	return NewMerger(
		dedupe.NewDeduplicator(embedder, nil),
		dates,
		temporal.NewTimelineBuilder(dates),
		0.9,
		nil,
		nil,
	)
}

func conf(v float64) *float64 { return &v }

// mergeEventRecorder keeps the field counts passed to the merge events.
type mergeEventRecorder struct {
	started  []int
	finished []int
}

func (r *mergeEventRecorder) ChunkStarted(int)       {}
func (r *mergeEventRecorder) ChunkFinished(int)      {}
func (r *mergeEventRecorder) ChunkFailed(int, error) {}

func (r *mergeEventRecorder) MergeStarted(fields int) {
	r.started = append(r.started, fields)
}

func (r *mergeEventRecorder) MergeFinished(fields int) {
	r.finished = append(r.finished, fields)
}

func TestMergeEmitsStartAndFinishEvents(t *testing.T) {
	specs := []model.FieldSpec{
		{Name: "name", Kind: model.KindScalar},
		{Name: "diagnoses", Kind: model.KindList},
	}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"name": "Jane Roe"}},
	}

	recorder := &mergeEventRecorder{}
	merger := newTestMerger(nil)
	merger.Events = recorder

	merger.Merge(context.Background(), results, specs)

	assert.Equal(t, []int{len(specs)}, recorder.started)
	assert.Equal(t, []int{len(specs)}, recorder.finished)
}

func TestMergeTotality(t *testing.T) {
	specs := []model.FieldSpec{
		{Name: "name", Kind: model.KindScalar},
		{Name: "diagnoses", Kind: model.KindList},
		{Name: "visits", Kind: model.KindTimeline},
		{Name: "dob", Kind: model.KindDate},
	}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)

	require.Contains(t, record.Fields, "name")
	require.Contains(t, record.Fields, "diagnoses")
	require.Contains(t, record.Fields, "visits")
	require.Contains(t, record.Fields, "dob")

	assert.Nil(t, record.Fields["name"])
	assert.Nil(t, record.Fields["dob"])
	assert.Equal(t, []interface{}{}, record.Fields["diagnoses"])
	assert.Equal(t, []interface{}{}, record.Fields["visits"])
}

func TestMergeSingleSourceVerbatim(t *testing.T) {
	specs := []model.FieldSpec{{Name: "name", Kind: model.KindScalar}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{}},
		{ChunkIndex: 1, Fields: map[string]interface{}{"name": "Jane Roe"}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)

	assert.Equal(t, "Jane Roe", record.Fields["name"])
	assert.Equal(t, []model.FieldSource{{ChunkIndex: 1, Confidence: 1.0}}, record.Metadata["name"])
}

func TestMergeScalarHighestConfidenceWins(t *testing.T) {
	specs := []model.FieldSpec{{Name: "name", Kind: model.KindScalar}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"name": "J. Roe"}, ChunkConfidence: conf(0.6)},
		{ChunkIndex: 1, Fields: map[string]interface{}{"name": "Jane Roe"}, ChunkConfidence: conf(0.95)},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)
	assert.Equal(t, "Jane Roe", record.Fields["name"])
}

func TestMergeScalarTieBreaksOnLowestChunkIndex(t *testing.T) {
	specs := []model.FieldSpec{{Name: "name", Kind: model.KindScalar}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"name": "first"}},
		{ChunkIndex: 1, Fields: map[string]interface{}{"name": "second"}},
	}

	// Reproducible across runs.
	for i := 0; i < 10; i++ {
		record := newTestMerger(nil).Merge(context.Background(), results, specs)
		assert.Equal(t, "first", record.Fields["name"])
	}
}

func TestMergeDateNormalizesBeforeResolution(t *testing.T) {
	specs := []model.FieldSpec{{Name: "dob", Kind: model.KindDate}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"dob": "07/22/2023"}},
		{ChunkIndex: 1, Fields: map[string]interface{}{"dob": "July 22, 2023"}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)
	assert.Equal(t, "2023-07-22", record.Fields["dob"])
}

func TestMergeUnparseableDateStillParticipates(t *testing.T) {
	specs := []model.FieldSpec{{Name: "dob", Kind: model.KindDate}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"dob": "last Tuesday"}, ChunkConfidence: conf(0.9)},
		{ChunkIndex: 1, Fields: map[string]interface{}{"dob": "2023-07-22"}, ChunkConfidence: conf(0.5)},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)
	assert.Equal(t, "last Tuesday", record.Fields["dob"])
}

func TestMergeListConcatenatesAndDeduplicates(t *testing.T) {
	embedder := &dedupe.MockEmbedder{Vectors: map[string][]float32{
		"Type 2 Diabetes":             {0, 1, 0},
		"Hypertension":                {1, 0, 0},
		"Upper respiratory infection": {0, 0, 1},
	}}
	specs := []model.FieldSpec{{Name: "diagnoses", Kind: model.KindList}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"diagnoses": []interface{}{"Type 2 Diabetes", "Hypertension"}}},
		{ChunkIndex: 1, Fields: map[string]interface{}{"diagnoses": []interface{}{"Hypertension", "Upper respiratory infection"}}},
	}

	record := newTestMerger(embedder).Merge(context.Background(), results, specs)

	assert.Equal(t,
		[]interface{}{"Type 2 Diabetes", "Hypertension", "Upper respiratory infection"},
		record.Fields["diagnoses"])

	// Pre-dedup sources are preserved for auditability.
	assert.Equal(t, []model.FieldSource{
		{ChunkIndex: 0, Confidence: 1.0},
		{ChunkIndex: 1, Confidence: 1.0},
	}, record.Metadata["diagnoses"])
}

func TestMergeTimelineSortedChronologically(t *testing.T) {
	specs := []model.FieldSpec{{Name: "visits", Kind: model.KindTimeline}}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{"visits": []interface{}{
			map[string]interface{}{"date": "07/22/2023", "reason": "follow-up"},
		}}},
		{ChunkIndex: 1, Fields: map[string]interface{}{"visits": []interface{}{
			map[string]interface{}{"date": "01/05/2023", "reason": "admission"},
			map[string]interface{}{"date": "07/22/2023", "reason": "follow-up"},
		}}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)

	visits, ok := record.Fields["visits"].([]interface{})
	require.True(t, ok)
	require.Len(t, visits, 2, "exact duplicate event must collapse")

	first := visits[0].(map[string]interface{})
	second := visits[1].(map[string]interface{})
	assert.Equal(t, "admission", first["reason"])
	assert.Equal(t, "2023-01-05", first["normalized_date"])
	assert.Equal(t, "01/05/2023", first["date"])
	assert.Equal(t, "follow-up", second["reason"])
}

func TestMergeWrongShapeReportedNotMerged(t *testing.T) {
	specs := []model.FieldSpec{
		{Name: "diagnoses", Kind: model.KindList},
		{Name: "name", Kind: model.KindScalar},
		{Name: "dob", Kind: model.KindDate},
	}
	results := []model.ChunkResult{
		{ChunkIndex: 0, Fields: map[string]interface{}{
			"diagnoses": "not a list",
			"name":      []interface{}{"not", "a", "scalar"},
			"dob":       float64(20230722),
		}},
		{ChunkIndex: 1, Fields: map[string]interface{}{
			"diagnoses": []interface{}{"Hypertension"},
		}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)

	assert.Len(t, record.Issues, 3)
	assert.Equal(t, []interface{}{"Hypertension"}, record.Fields["diagnoses"])
	assert.Nil(t, record.Fields["name"])
	assert.Nil(t, record.Fields["dob"])
}

func TestMergeFailedChunksContributeNothing(t *testing.T) {
	specs := []model.FieldSpec{{Name: "name", Kind: model.KindScalar}}
	results := []model.ChunkResult{
		model.FailedResult(0, assert.AnError),
		{ChunkIndex: 1, Fields: map[string]interface{}{"name": "Jane Roe"}},
	}

	record := newTestMerger(nil).Merge(context.Background(), results, specs)

	assert.Equal(t, "Jane Roe", record.Fields["name"])
	assert.Equal(t, []model.FieldSource{{ChunkIndex: 1, Confidence: 1.0}}, record.Metadata["name"])
}
