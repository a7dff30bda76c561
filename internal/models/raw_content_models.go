package models

// ClassLabels maps a feature name to the label names of an enumerated
// column, indexed by integer code.
type ClassLabels map[string][]string

// RawRecord is one source-native row as it came off a stream. Nothing
// about its shape is trusted: every access goes through Get or First.
type RawRecord struct {
	Source    string
	Partition string
	Fields    map[string]any
	Labels    ClassLabels
}

// Get returns the value of field and whether it is present and non-null.
func (r RawRecord) Get(field string) (any, bool) {
	if field == "" || r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// First returns the first present, non-null value among the given fields.
func (r RawRecord) First(fields ...string) (any, bool) {
	for _, f := range fields {
		if v, ok := r.Get(f); ok {
			return v, true
		}
	}
	return nil, false
}

// LabelsFor returns the enumerated label names declared for feature.
func (r RawRecord) LabelsFor(feature string) []string {
	if r.Labels == nil {
		return nil
	}
	return r.Labels[feature]
}
