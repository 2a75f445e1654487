package model

// FieldKind declares the shape a schema field is expected to take.
type FieldKind string

const (
	KindScalar FieldKind = "scalar"
	KindList   FieldKind = "list"
	KindDate   FieldKind = "date"
	// KindTimeline is a list of date-bearing objects, sorted
	// chronologically after merging.
	KindTimeline FieldKind = "timeline"
)

// FieldSpec describes one field of the externally supplied schema. The
// core never invents fields: a merged record contains exactly the names
// declared here.
type FieldSpec struct {
	Name        string    `json:"name"`
	Kind        FieldKind `json:"kind"`
	Description string    `json:"description,omitempty"`
}

// IsList reports whether the kind carries list-shaped values.
func (f FieldSpec) IsList() bool {
	return f.Kind == KindList || f.Kind == KindTimeline
}
