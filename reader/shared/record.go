package shared

// Record is the unit handed from the decoder to the hooks and the sinks.
// Field order is the order in which names were first set.
type Record struct {
	names  []string
	values map[string]any
}

func NewRecord(capacity int) *Record {
	return &Record{
		names:  make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// Set stores v under name. A nil v is the "no value" sentinel.
func (r *Record) Set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Record) Value(name string) any {
	return r.values[name]
}

func (r *Record) Names() []string {
	return r.names
}

func (r *Record) Len() int {
	return len(r.names)
}

// Map exposes the underlying values. Callers must not retain it across records.
func (r *Record) Map() map[string]any {
	return r.values
}
