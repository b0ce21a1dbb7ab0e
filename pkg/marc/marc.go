// Package marc provides an in-memory representation of MARC 21 bibliographic
// records together with an ISO 2709 reader and writer. The rest of the system
// treats a record's binary payload as opaque and manipulates it only through
// the field operations defined here.
package marc

import (
	"strings"
)

// Subfield is a single coded value inside a variable data field.
type Subfield struct {
	Code  string
	Value string
}

// Field is one MARC field. Control fields (tags 001-009) carry Data and no
// indicators or subfields; data fields carry two indicators and subfields.
type Field struct {
	Tag       string
	Ind1      string
	Ind2      string
	Subfields []Subfield
	Data      string
}

// NewField creates a variable data field.
func NewField(tag, ind1, ind2 string, subfields ...Subfield) Field {
	return Field{Tag: tag, Ind1: ind1, Ind2: ind2, Subfields: subfields}
}

// NewControlField creates a control field carrying raw data.
func NewControlField(tag, data string) Field {
	return Field{Tag: tag, Data: data}
}

// IsControl reports whether the field is a control field (tag 00X).
func (f *Field) IsControl() bool {
	return strings.HasPrefix(f.Tag, "00")
}

// Get returns the value of the first subfield with the given code, or "".
func (f *Field) Get(code string) string {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value
		}
	}
	return ""
}

// GetAll returns the values of every subfield with the given code.
func (f *Field) GetAll(code string) []string {
	var values []string
	for _, sf := range f.Subfields {
		if sf.Code == code {
			values = append(values, sf.Value)
		}
	}
	return values
}

// Value returns all subfield values joined by single spaces. For control
// fields it returns the raw data.
func (f *Field) Value() string {
	if f.IsControl() {
		return f.Data
	}
	values := make([]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		values = append(values, sf.Value)
	}
	return strings.Join(values, " ")
}

// Record is one MARC record: a 24-byte leader and an ordered field list.
type Record struct {
	Leader string
	Fields []Field
}

// defaultLeader is used when serializing records constructed in memory
// without an explicit leader.
const defaultLeader = "00000nam a2200000 a 4500"

// Get returns a pointer to the first field with the given tag, or nil.
func (r *Record) Get(tag string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Tag == tag {
			return &r.Fields[i]
		}
	}
	return nil
}

// GetFields returns pointers to every field with one of the given tags,
// in record order.
func (r *Record) GetFields(tags ...string) []*Field {
	var fields []*Field
	for i := range r.Fields {
		for _, tag := range tags {
			if r.Fields[i].Tag == tag {
				fields = append(fields, &r.Fields[i])
				break
			}
		}
	}
	return fields
}

// RemoveFields deletes every field with one of the given tags.
func (r *Record) RemoveFields(tags ...string) {
	kept := r.Fields[:0]
	for _, f := range r.Fields {
		remove := false
		for _, tag := range tags {
			if f.Tag == tag {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, f)
		}
	}
	r.Fields = kept
}

// RemoveField deletes the first field equal to the given field.
func (r *Record) RemoveField(field Field) {
	for i := range r.Fields {
		if fieldsEqual(&r.Fields[i], &field) {
			r.Fields = append(r.Fields[:i], r.Fields[i+1:]...)
			return
		}
	}
}

// AddField appends a field at the end of the record.
func (r *Record) AddField(field Field) {
	r.Fields = append(r.Fields, field)
}

// AddOrderedField inserts a field keeping fields sorted by tag. Fields with
// the same tag keep their insertion order.
func (r *Record) AddOrderedField(field Field) {
	for i := range r.Fields {
		if r.Fields[i].Tag > field.Tag {
			r.Fields = append(r.Fields[:i], append([]Field{field}, r.Fields[i:]...)...)
			return
		}
	}
	r.Fields = append(r.Fields, field)
}

// ControlNumber returns the record's 001 value, or "".
func (r *Record) ControlNumber() string {
	if f := r.Get("001"); f != nil {
		return f.Data
	}
	return ""
}

// SetLeaderUTF8 forces the leader's character coding scheme (byte 9) to
// 'a' (UCS/Unicode) ahead of serialization.
func (r *Record) SetLeaderUTF8() {
	leader := r.Leader
	if len(leader) != leaderLen {
		leader = defaultLeader
	}
	r.Leader = leader[:9] + "a" + leader[10:]
}

// Copy returns a deep copy of the record.
func (r *Record) Copy() *Record {
	clone := &Record{Leader: r.Leader, Fields: make([]Field, len(r.Fields))}
	copy(clone.Fields, r.Fields)
	for i := range clone.Fields {
		if len(r.Fields[i].Subfields) > 0 {
			clone.Fields[i].Subfields = make([]Subfield, len(r.Fields[i].Subfields))
			copy(clone.Fields[i].Subfields, r.Fields[i].Subfields)
		}
	}
	return clone
}

func fieldsEqual(a, b *Field) bool {
	if a.Tag != b.Tag || a.Ind1 != b.Ind1 || a.Ind2 != b.Ind2 || a.Data != b.Data {
		return false
	}
	if len(a.Subfields) != len(b.Subfields) {
		return false
	}
	for i := range a.Subfields {
		if a.Subfields[i] != b.Subfields[i] {
			return false
		}
	}
	return true
}
