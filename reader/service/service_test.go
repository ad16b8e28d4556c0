package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/metrico/datareader/config"
	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/hooks"
	"github.com/metrico/datareader/reader/schema"
	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/reader/sink"
)

var states = []string{"NY", "CA", "TX", "IL", "FL"}

func sinValue(i int) float64 {
	return math.Round(math.Sin(float64(i))*1000) / 1000
}

func sinFile(t *testing.T, n int, header bool) string {
	t.Helper()
	var b strings.Builder
	if header {
		b.WriteString("state,letters,sin,obs\n")
	}
	for i := 1; i <= n; i++ {
		// Header files list the columns in another order than the schema.
		if header {
			fmt.Fprintf(&b, "%s,abc,%v,%d\n", states[i%len(states)], sinValue(i), i)
		} else {
			fmt.Fprintf(&b, "%d,%v,abc,%s\n", i, sinValue(i), states[i%len(states)])
		}
	}
	return writeFile(t, "sin.csv", b.String())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sinSchema(t *testing.T, action string) *schema.Schema {
	t.Helper()
	s, err := schema.FromFile(&model.SchemaFile{Fields: []model.FieldDef{
		{Name: "obs", Type: "int"},
		{Name: "sin", Type: "float", Action: action, Min: 0.0, MinReplacement: -2.0, Max: 0.5, MaxReplacement: 2.0},
		{Name: "letters", Type: "str"},
		{Name: "state", Type: "state"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func baseConfig(source string) *config.Configuration {
	return &config.Configuration{
		SourcePath:      source,
		Delimiter:       ",",
		SampleRate:      1,
		Workers:         1,
		OutputKind:      string(sink.KIND_COLLECT),
		OutputDelimiter: ",",
	}
}

func run(t *testing.T, cfg *config.Configuration, s *schema.Schema, h ...shared.RowHook) *Result {
	t.Helper()
	res, err := Run(context.Background(), cfg, s, h...)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func obs(res *Result) []int64 {
	out := make([]int64, len(res.Records))
	for i, rec := range res.Records {
		out[i] = rec.Value("obs").(int64)
	}
	return out
}

func TestChunks(t *testing.T) {
	tests := []struct {
		size   int64
		k      int
		chunks int
	}{
		{1000, 1, 1},
		{1000, 26, 26},
		{3, 10, 3},
		{0, 4, 1},
	}
	for _, tt := range tests {
		res, err := Chunks(tt.size, tt.k)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != tt.chunks {
			t.Fatalf("Chunks(%d, %d): %d chunks", tt.size, tt.k, len(res))
		}
		if res[0].Start != 0 || res[len(res)-1].End != tt.size {
			t.Fatalf("Chunks(%d, %d) does not cover the range: %v", tt.size, tt.k, res)
		}
		for i := 1; i < len(res); i++ {
			if res[i].Start != res[i-1].End || res[i].Start <= res[i-1].Start {
				t.Fatalf("Chunks(%d, %d): %v", tt.size, tt.k, res)
			}
		}
	}
	for _, k := range []int{0, 27} {
		if _, err := Chunks(100, k); !errors.Is(err, shared.ErrConfiguration) {
			t.Fatalf("k=%d: %v", k, err)
		}
	}
}

func TestSinFix(t *testing.T) {
	src := sinFile(t, 100, false)
	s := sinSchema(t, "FIX")
	var want []int64
	for i := int64(1); i <= 100; i++ {
		want = append(want, i)
	}
	for _, k := range []int{1, 2, 7, 26} {
		cfg := baseConfig(src)
		cfg.Workers = k
		res := run(t, cfg, s)
		if !slices.Equal(obs(res), want) {
			t.Fatalf("k=%d: rows %v", k, obs(res))
		}
		for _, rec := range res.Records {
			v := rec.Value("sin").(float64)
			raw := sinValue(int(rec.Value("obs").(int64)))
			switch {
			case raw < 0 && v != -2.0, raw > 0.5 && v != 2.0:
				t.Fatalf("k=%d: sin %v fixed to %v", k, raw, v)
			case raw >= 0 && raw <= 0.5 && v != raw:
				t.Fatalf("k=%d: sin %v changed to %v", k, raw, v)
			}
		}
		if len(res.Chunks) != k || res.Stats.Kept != 100 {
			t.Fatalf("k=%d: %d chunks, %d kept", k, len(res.Chunks), res.Stats.Kept)
		}
	}
}

func TestDropCount(t *testing.T) {
	src := sinFile(t, 100, false)
	violations := 0
	for i := 1; i <= 100; i++ {
		if v := sinValue(i); v < 0 || v > 0.5 {
			violations++
		}
	}
	cfg := baseConfig(src)
	cfg.Workers = 4
	res := run(t, cfg, sinSchema(t, "DROP"))
	if len(res.Records) != 100-violations || res.Stats.Dropped != int64(violations) {
		t.Fatalf("%d kept, %d dropped, %d violations", len(res.Records), res.Stats.Dropped, violations)
	}
}

func TestHeaderEquivalence(t *testing.T) {
	s := sinSchema(t, "FIX")
	plain := run(t, baseConfig(sinFile(t, 100, false)), s)

	cfg := baseConfig(sinFile(t, 100, true))
	cfg.HasHeader = true
	for _, k := range []int{1, 3, 26} {
		cfg.Workers = k
		withHeader := run(t, cfg, s)
		if len(withHeader.Records) != len(plain.Records) {
			t.Fatalf("k=%d: %d vs %d rows", k, len(withHeader.Records), len(plain.Records))
		}
		for i, rec := range withHeader.Records {
			for _, n := range s.Names() {
				if rec.Value(n) != plain.Records[i].Value(n) {
					t.Fatalf("k=%d row %d field %s: %v vs %v", k, i, n, rec.Value(n), plain.Records[i].Value(n))
				}
			}
		}
		if !slices.Equal(withHeader.Columns, s.Names()) {
			t.Fatalf("columns %v", withHeader.Columns)
		}
	}
}

func TestFlatDates(t *testing.T) {
	s, err := schema.FromFile(&model.SchemaFile{Fields: []model.FieldDef{
		{Name: "obs", Type: "int", Start: model.IntPtr(1), Width: model.IntPtr(3)},
		{Name: "end", Type: "date", Format: "CCYYMME", Start: model.IntPtr(4), Width: model.IntPtr(6)},
		{Name: "begin", Type: "date", Format: "MM/DD/CCYYB", Start: model.IntPtr(10), Width: model.IntPtr(10)},
	}})
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for i := 1; i <= 48; i++ {
		month := (i-1)%12 + 1
		year := 2020 + (i-1)/12
		fmt.Fprintf(&b, "%3d%04d%02d%02d/17/%04d\n", i, year, month, month, year)
	}
	cfg := baseConfig(writeFile(t, "dates.dat", b.String()))
	cfg.Workers = 5
	res := run(t, cfg, s)
	if len(res.Records) != 48 {
		t.Fatalf("%d rows", len(res.Records))
	}
	for _, rec := range res.Records {
		i := int(rec.Value("obs").(int64))
		month := time.Month((i-1)%12 + 1)
		year := 2020 + (i-1)/12
		end := rec.Value("end").(time.Time)
		if end.Month() != month || end.AddDate(0, 0, 1).Month() == month {
			t.Fatalf("row %d: end %v", i, end)
		}
		if begin := rec.Value("begin").(time.Time); !begin.Equal(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("row %d: begin %v", i, begin)
		}
	}
	feb := res.Records[1].Value("end").(time.Time)
	if feb.Day() != 29 {
		t.Fatalf("2020 is a leap year, got %v", feb)
	}
}

func TestPartitionsAcrossWorkers(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "data.csv")
	cfg := baseConfig(sinFile(t, 120, false))
	cfg.Workers = 3
	cfg.OutputKind = string(sink.KIND_DELIMITED_FILE)
	cfg.OutputPath = out
	cfg.OutputHeader = true
	cfg.PartitionField = "state"
	res := run(t, cfg, sinSchema(t, "FIX"))
	if res.Records != nil {
		t.Fatal("file output keeps no records")
	}
	total := 0
	for _, f := range res.Files {
		dir := filepath.Base(filepath.Dir(f))
		if !strings.HasPrefix(dir, "state=") {
			t.Fatalf("file %s outside a partition", f)
		}
		name := filepath.Base(f)
		if name != "dataa.csv" && name != "datab.csv" && name != "datac.csv" {
			t.Fatalf("file name %s", name)
		}
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "obs,sin,letters" {
			t.Fatalf("%s header %q", f, lines[0])
		}
		total += len(lines) - 1
	}
	if total != 120 || res.Stats.Kept != 120 {
		t.Fatalf("%d rows written, %d kept", total, res.Stats.Kept)
	}
}

func TestFatalCancelsRun(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 5000; i++ {
		v := 0.25
		if i == 10 {
			v = 0.9
		}
		fmt.Fprintf(&b, "%d,%v,abc,NY\n", i, v)
	}
	cfg := baseConfig(writeFile(t, "fatal.csv", b.String()))
	cfg.Workers = 8
	_, err := Run(context.Background(), cfg, sinSchema(t, "FATAL"))
	if !errors.Is(err, shared.ErrRange) {
		t.Fatalf("got %v", err)
	}
	var e *shared.Error
	if !errors.As(err, &e) || e.Field != "sin" || e.Row != 10 {
		t.Fatalf("error %v", err)
	}
}

func TestFilterLookupAndUserHooks(t *testing.T) {
	table := writeFile(t, "regions.dat", "NY|east\nCA|west\nTX|south\n")
	cfg := baseConfig(sinFile(t, 100, false))
	cfg.Workers = 4
	cfg.Filter = `region != nil && sin >= 0`
	cfg.Lookups = []hooks.LookupConfig{{File: table, Key: "state", Columns: []string{"region"}, Matched: "known"}}
	var seen int64
	count := hooks.HookFunc(func(rec *shared.Record) (bool, error) {
		if rec.Value("known") != true {
			return false, errors.New("filter let an unmatched record through")
		}
		return true, nil
	})
	res := run(t, cfg, sinSchema(t, "FIX"), count)
	for _, rec := range res.Records {
		seen++
		if rec.Value("sin").(float64) < 0 {
			t.Fatalf("record %v passed the filter", rec.Map())
		}
		if st := rec.Value("state"); st != "NY" && st != "CA" && st != "TX" {
			t.Fatalf("state %v has no region", st)
		}
	}
	if seen == 0 || res.Stats.Filtered+res.Stats.Kept != 100 {
		t.Fatalf("kept %d, filtered %d", res.Stats.Kept, res.Stats.Filtered)
	}
	if !slices.Contains(res.Columns, "region") {
		t.Fatalf("columns %v", res.Columns)
	}
}

func TestInMemoryKinds(t *testing.T) {
	s, err := schema.FromFile(&model.SchemaFile{Fields: []model.FieldDef{
		{Name: "obs", Type: "int"},
		{Name: "sin", Type: "float"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "%d,%v\n", i, sinValue(i))
	}
	cfg := baseConfig(writeFile(t, "num.csv", b.String()))
	cfg.Workers = 3
	cfg.OutputKind = string(sink.KIND_NUMERIC_MATRIX)
	res := run(t, cfg, s)
	m, err := res.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	if r, c := m.Dims(); r != 30 || c != 2 || m.At(29, 0) != 30 || m.At(0, 1) != sinValue(1) {
		t.Fatalf("matrix %dx%d", r, c)
	}

	cfg.OutputKind = string(sink.KIND_TABLE)
	tbl, err := run(t, cfg, s).Table()
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()
	if tbl.NumRows() != 30 || tbl.ColumnName(1) != "sin" {
		t.Fatalf("table %v", tbl.Schema())
	}

	cfg.OutputKind = string(sink.KIND_NUMERIC_MATRIX)
	cfg.SourcePath = sinFile(t, 10, false)
	if _, err := Run(context.Background(), cfg, sinSchema(t, "FIX")); !errors.Is(err, shared.ErrConfiguration) {
		t.Fatalf("strings in a matrix: %v", err)
	}
}

func TestMissingSource(t *testing.T) {
	cfg := baseConfig(filepath.Join(t.TempDir(), "none.csv"))
	if _, err := Run(context.Background(), cfg, sinSchema(t, "FIX")); !errors.Is(err, shared.ErrResource) {
		t.Fatalf("got %v", err)
	}
}
