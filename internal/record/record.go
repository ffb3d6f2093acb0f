package record

import "fmt"

// Record is a single item of a remote record set.
// Identity is the ID; Fields are keyed by column name.
type Record struct {
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// New creates a record from an ID and field map.
// A nil map is replaced by an empty one.
func New(id string, fields map[string]any) Record {
	if fields == nil {
		fields = map[string]any{}
	}
	return Record{ID: id, Fields: fields}
}

// Field returns the named field and whether it was present.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Validate checks that the record carries an identity.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record: id is required")
	}
	return nil
}
