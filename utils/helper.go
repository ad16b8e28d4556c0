package utils

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/reader/sink"
)

const (
	FORMAT_JSON_EACH_ROW   = "JSONEachRow"
	FORMAT_JSON_COMPACT    = "JSONCompact"
	FORMAT_CSV_WITH_NAMES  = "CSVWithNames"
	FORMAT_TSV             = "TSV"
	FORMAT_TSV_WITH_NAMES  = "TSVWithNames"
	FORMAT_TAB_SEPARATED   = "TabSeparated"
	FORMAT_TSV_NAMES_ALIAS = "TabSeparatedWithNames"
)

// ConversationOfRecords writes records to w in the given output format.
// meta names and types the columns; stats fills the JSONCompact footer.
func ConversationOfRecords(w io.Writer, format string, meta []model.Metadata, records []*shared.Record,
	stats model.Statistics) error {
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case "", FORMAT_JSON_EACH_ROW, "NDJSON":
		err = recordsToNDJSON(bw, meta, records)
	case FORMAT_JSON_COMPACT, "JSON":
		err = recordsToJSON(bw, meta, records, stats)
	case FORMAT_CSV_WITH_NAMES:
		err = recordsToCSV(bw, meta, records)
	case FORMAT_TSV_WITH_NAMES, FORMAT_TSV_NAMES_ALIAS:
		err = recordsToText(bw, meta, records, true)
	case FORMAT_TSV, FORMAT_TAB_SEPARATED:
		err = recordsToText(bw, meta, records, false)
	default:
		return errors.Errorf("unknown output format %s", format)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// encodeValue writes one record value. Dates are CCYY-MM-DD strings.
func encodeValue(e *jx.Encoder, v any) {
	switch _v := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(_v)
	case int64:
		e.Int64(_v)
	case float64:
		e.Float64(_v)
	case bool:
		e.Bool(_v)
	case time.Time:
		e.Str(_v.Format(time.DateOnly))
	case []byte:
		e.ByteStr(_v)
	default:
		e.Str(sink.FormatValue(v))
	}
}

// recordsToNDJSON writes one JSON object per record
func recordsToNDJSON(w *bufio.Writer, meta []model.Metadata, records []*shared.Record) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	for _, rec := range records {
		e.Reset()
		e.Obj(func(e *jx.Encoder) {
			for _, m := range meta {
				e.Field(m.Name, func(e *jx.Encoder) {
					encodeValue(e, rec.Value(m.Name))
				})
			}
		})
		e.RawStr("\n")
		if _, err := w.Write(e.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// recordsToJSON writes the meta/data/rows/statistics document
func recordsToJSON(w *bufio.Writer, meta []model.Metadata, records []*shared.Record, stats model.Statistics) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("meta", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, m := range meta {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(m.Name) })
						e.Field("type", func(e *jx.Encoder) { e.Str(m.Type) })
					})
				}
			})
		})
		e.Field("data", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, rec := range records {
					e.Arr(func(e *jx.Encoder) {
						for _, m := range meta {
							encodeValue(e, rec.Value(m.Name))
						}
					})
				}
			})
		})
		e.Field("rows", func(e *jx.Encoder) { e.Int(len(records)) })
		e.Field("statistics", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("elapsed", func(e *jx.Encoder) { e.Float64(stats.Elapsed) })
				e.Field("rows_read", func(e *jx.Encoder) { e.Int64(stats.RowsRead) })
				e.Field("rows_kept", func(e *jx.Encoder) { e.Int64(stats.RowsKept) })
				e.Field("rows_dropped", func(e *jx.Encoder) { e.Int64(stats.Dropped) })
				e.Field("bytes_read", func(e *jx.Encoder) { e.Int64(stats.BytesRead) })
			})
		})
	})
	e.RawStr("\n")
	_, err := w.Write(e.Bytes())
	return err
}

// recordsToCSV writes a header row then one quoted-as-needed row per record
func recordsToCSV(w io.Writer, meta []model.Metadata, records []*shared.Record) error {
	cw := csv.NewWriter(w)
	row := make([]string, len(meta))
	for i, m := range meta {
		row[i] = m.Name
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	for _, rec := range records {
		for i, m := range meta {
			row[i] = sink.FormatValue(rec.Value(m.Name))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// recordsToText writes tab separated rows, optionally headed by column names
func recordsToText(w *bufio.Writer, meta []model.Metadata, records []*shared.Record, cols bool) error {
	if cols {
		for i, m := range meta {
			if i > 0 {
				w.WriteByte('\t')
			}
			w.WriteString(tsvEscaper.Replace(m.Name))
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	for _, rec := range records {
		for i, m := range meta {
			if i > 0 {
				w.WriteByte('\t')
			}
			w.WriteString(tsvEscaper.Replace(sink.FormatValue(rec.Value(m.Name))))
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

var tsvEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (string, error) {
	for _, f := range []string{FORMAT_JSON_EACH_ROW, FORMAT_JSON_COMPACT, FORMAT_CSV_WITH_NAMES, FORMAT_TSV,
		FORMAT_TSV_WITH_NAMES, FORMAT_TAB_SEPARATED, FORMAT_TSV_NAMES_ALIAS, "NDJSON", "JSON"} {
		if strings.EqualFold(f, s) {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown output format %q", s)
}
