package model

// Metadata is the metadata for a column
type Metadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Statistics is the statistics for a run
type Statistics struct {
	Elapsed   float64 `json:"elapsed"`
	RowsRead  int64   `json:"rows_read"`
	RowsKept  int64   `json:"rows_kept"`
	Dropped   int64   `json:"rows_dropped"`
	BytesRead int64   `json:"bytes_read"`
}

// OutputJSON is the JSONCompact document printed for collected records
type OutputJSON struct {
	Meta       []Metadata `json:"meta"`
	Data       [][]any    `json:"data"`
	Rows       int        `json:"rows"`
	Statistics Statistics `json:"statistics"`
}
