package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/distill/internal/core/model"
)

// Store writes one Document node, one Record node and one FieldValue
// node per schema field, with contributing chunk indices and
// confidences on each field for audit queries.
type Store struct {
	Driver GraphDriver
}

func NewStore(driver GraphDriver) *Store {
	return &Store{Driver: driver}
}

// SaveRecord archives a merged record. It returns the record UUID.
func (s *Store) SaveRecord(ctx context.Context, documentName string, chunkCount int, record model.MergedRecord) (string, error) {
	now := time.Now().UTC()
	docUUID := uuid.New().String()
	recordUUID := uuid.New().String()

	docParams := map[string]interface{}{
		"uuid":        docUUID,
		"name":        documentName,
		"created_at":  now.Format(time.RFC3339),
		"chunk_count": chunkCount,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, saveDocumentQuery, docParams); err != nil {
		return "", fmt.Errorf("failed to save document node: %w", err)
	}

	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode record fields: %w", err)
	}

	recordParams := map[string]interface{}{
		"uuid":          recordUUID,
		"document_uuid": docUUID,
		"created_at":    now.Format(time.RFC3339),
		"fields":        string(fieldsJSON),
		"issues":        record.Issues,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, saveRecordQuery, recordParams); err != nil {
		return "", fmt.Errorf("failed to save record node: %w", err)
	}

	for name, value := range record.Fields {
		valueJSON, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("failed to encode field %q: %w", name, err)
		}

		sources := record.Metadata[name]
		chunks := make([]int, len(sources))
		confidences := make([]float64, len(sources))
		for i, src := range sources {
			chunks[i] = src.ChunkIndex
			confidences[i] = src.Confidence
		}

		fieldParams := map[string]interface{}{
			"record_uuid":   recordUUID,
			"name":          name,
			"value":         string(valueJSON),
			"source_chunks": chunks,
			"confidences":   confidences,
		}
		if _, err := s.Driver.ExecuteQuery(ctx, saveFieldValueQuery, fieldParams); err != nil {
			return "", fmt.Errorf("failed to save field %q: %w", name, err)
		}
	}

	return recordUUID, nil
}
