package archive

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/distill/internal/core/model"
)

type mockDriver struct {
	Queries []string
	Params  []map[string]interface{}
	Err     error
}

func (m *mockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return neo4j.EagerResult{}, nil
}

func (m *mockDriver) BuildIndices(ctx context.Context) error { return nil }
func (m *mockDriver) Close(ctx context.Context) error        { return nil }

func TestSaveRecord(t *testing.T) {
	driver := &mockDriver{}
	store := NewStore(driver)

	record := model.MergedRecord{
		Fields: map[string]interface{}{
			"diagnoses": []interface{}{"Hypertension"},
		},
		Metadata: map[string][]model.FieldSource{
			"diagnoses": {{ChunkIndex: 0, Confidence: 0.9}, {ChunkIndex: 2, Confidence: 1.0}},
		},
	}

	recordUUID, err := store.SaveRecord(context.Background(), "discharge-note.txt", 3, record)
	require.NoError(t, err)
	assert.NotEmpty(t, recordUUID)

	// Document + record + one field node.
	require.Len(t, driver.Queries, 3)
	assert.Equal(t, "discharge-note.txt", driver.Params[0]["name"])
	assert.Equal(t, 3, driver.Params[0]["chunk_count"])
	assert.Equal(t, []int{0, 2}, driver.Params[2]["source_chunks"])
	assert.Equal(t, []float64{0.9, 1.0}, driver.Params[2]["confidences"])
}

func TestSaveRecordDriverFailure(t *testing.T) {
	driver := &mockDriver{Err: assert.AnError}
	store := NewStore(driver)

	_, err := store.SaveRecord(context.Background(), "doc", 1, model.MergedRecord{
		Fields: map[string]interface{}{},
	})
	assert.Error(t, err)
}
