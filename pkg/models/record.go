package models

// Record is one row: an ordered mapping of field name to Value.
// Field order is insertion order; setting an existing field keeps its position.
type Record struct {
	names  []string
	values []Value
	index  map[string]int
}

// NewRecord creates an empty record with room for n fields
func NewRecord(n ...int) *Record {
	capacity := 0
	if len(n) > 0 {
		capacity = n[0]
	}
	return &Record{
		names:  make([]string, 0, capacity),
		values: make([]Value, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

// Set assigns v to the named field
func (r *Record) Set(name string, v Value) *Record {
	if i, ok := r.index[name]; ok {
		r.values[i] = v
		return r
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
	r.values = append(r.values, v)
	return r
}

// Get returns the named field. The second result is false when the field is absent.
func (r *Record) Get(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Fields returns the field names in insertion order. The slice must not be modified.
func (r *Record) Fields() []string {
	if r == nil {
		return nil
	}
	return r.names
}

// Len returns the number of fields
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Each calls fn for every field in order
func (r *Record) Each(fn func(name string, v Value)) {
	for i, name := range r.names {
		fn(name, r.values[i])
	}
}

// Filter returns a new record holding only the fields for which keep returns true.
// The receiver is left untouched.
func (r *Record) Filter(keep func(name string, v Value) bool) *Record {
	out := NewRecord(len(r.names))
	for i, name := range r.names {
		if keep(name, r.values[i]) {
			out.Set(name, r.values[i])
		}
	}
	return out
}
