package model

// Chunk is one bounded slice of the source document, submitted to
// extraction independently. Offsets are rune offsets into the original
// document and are carried for provenance only.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// ChunkResult holds the raw field values one chunk produced. A failed
// extraction still occupies its slot: Fields is empty and Error carries
// the reason, so result slices stay index-aligned with the input chunks.
type ChunkResult struct {
	ChunkIndex int                    `json:"chunk_index"`
	Fields     map[string]interface{} `json:"fields"`
	// ChunkConfidence is the extractor-supplied trust in this chunk's
	// values. Nil means "not supplied"; Confidence() defaults it to 1.0.
	ChunkConfidence *float64 `json:"confidence,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Confidence returns the extractor-supplied confidence, defaulting to 1.0.
func (r ChunkResult) Confidence() float64 {
	if r.ChunkConfidence == nil {
		return 1.0
	}
	return *r.ChunkConfidence
}

// Failed reports whether this slot records a failed extraction.
func (r ChunkResult) Failed() bool {
	return r.Error != ""
}

// FailedResult builds the empty slot recorded for a chunk whose
// extraction failed.
func FailedResult(index int, err error) ChunkResult {
	return ChunkResult{
		ChunkIndex: index,
		Fields:     map[string]interface{}{},
		Error:      err.Error(),
	}
}
