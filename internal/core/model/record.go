package model

import "encoding/json"

// FieldSource records one chunk's contribution to a field: which chunk
// and at what confidence. Sources are recorded pre-deduplication so the
// audit trail covers dropped values too.
type FieldSource struct {
	ChunkIndex int     `json:"chunk_index"`
	Confidence float64 `json:"confidence"`
}

// MergedRecord is the single reconciled record produced per document.
// Fields holds the final value for every schema field (nil or empty list
// when nothing contributed). Metadata lists the contributing sources per
// field. Issues carries extractor contract violations (wrong-shape
// values) that were reported but not merged.
type MergedRecord struct {
	Fields   map[string]interface{}   `json:"fields"`
	Metadata map[string][]FieldSource `json:"metadata"`
	Issues   []string                 `json:"issues,omitempty"`
}

// MarshalJSON flattens the record into the wire shape consumed by
// formatters: field values at the top level plus a "_metadata" key.
func (r MergedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+2)
	for name, value := range r.Fields {
		out[name] = value
	}
	out["_metadata"] = r.Metadata
	if len(r.Issues) > 0 {
		out["_issues"] = r.Issues
	}
	return json.Marshal(out)
}
