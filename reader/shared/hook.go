package shared

// RowHook sees every decoded record that survived validation, before it
// reaches a sink. It may add or overwrite fields; returning false drops
// the record, returning an error aborts the chunk.
type RowHook interface {
	Process(rec *Record) (bool, error)
}
