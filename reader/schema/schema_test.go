package schema

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

var intp = model.IntPtr

func TestAddFieldRejects(t *testing.T) {
	tests := []struct {
		name string
		defs []FieldDef
	}{
		{"bad action", []FieldDef{{Name: "a", Type: "int", Action: "skip"}}},
		{"bad type", []FieldDef{{Name: "a", Type: "decimal"}}},
		{"format on int", []FieldDef{{Name: "a", Type: "int", Format: "CCYYMMDD"}}},
		{"bad format", []FieldDef{{Name: "a", Type: "date", Format: "DDMMCCYY"}}},
		{"start without width", []FieldDef{{Name: "a", Type: "int", Start: intp(1)}}},
		{"width without start", []FieldDef{{Name: "a", Type: "int", Width: intp(1)}}},
		{"zero width", []FieldDef{{Name: "a", Type: "int", Start: intp(1), Width: intp(0)}}},
		{"mixed fixed width", []FieldDef{
			{Name: "a", Type: "int", Start: intp(1), Width: intp(2)},
			{Name: "b", Type: "int"},
		}},
		{"fixed width after delimited", []FieldDef{
			{Name: "a", Type: "int"},
			{Name: "b", Type: "int", Start: intp(1), Width: intp(2)},
		}},
		{"min wrong type", []FieldDef{{Name: "a", Type: "int", Min: "x"}}},
		{"int min from float", []FieldDef{{Name: "a", Type: "int", Min: 1.5}}},
		{"max replacement wrong type", []FieldDef{{Name: "a", Type: "str", MaxReplacement: 3}}},
		{"min above max", []FieldDef{{Name: "a", Type: "float", Min: 2, Max: 1}}},
		{"bad date literal", []FieldDef{{Name: "a", Type: "date", Min: "date(1800, 1, 1)"}}},
		{"legal values wrong type", []FieldDef{{Name: "a", Type: "int", LegalValues: []any{1, "b"}}}},
		{"legal values not a list", []FieldDef{{Name: "a", Type: "int", LegalValues: 3}}},
		{"duplicate", []FieldDef{{Name: "a", Type: "int"}, {Name: "a", Type: "str"}}},
		{"missing legal file", []FieldDef{{Name: "a", Type: "str", LegalValuesFile: "/nonexistent/x.dat"}}},
	}
	for _, tt := range tests {
		b := NewBuilder()
		var err error
		for _, d := range tt.defs {
			if err = b.AddField(d); err != nil {
				break
			}
		}
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		var e *shared.Error
		if !errors.As(err, &e) {
			t.Fatalf("%s: expected *shared.Error, got %T", tt.name, err)
		}
		if e.Kind != shared.KindConfiguration && e.Kind != shared.KindResource {
			t.Fatalf("%s: unexpected kind %v", tt.name, e.Kind)
		}
	}
}

func TestRejectedFieldLeavesBuilderUnchanged(t *testing.T) {
	b := NewBuilder()
	if err := b.AddField(FieldDef{Name: "a", Type: "int", Start: intp(1), Width: intp(3)}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddField(FieldDef{Name: "b", Type: "int"}); err == nil {
		t.Fatal("expected error")
	}
	if err := b.AddField(FieldDef{Name: "b", Type: "int", Start: intp(4), Width: intp(2)}); err != nil {
		t.Fatal(err)
	}
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || !s.FixedWidth() || s.RecordLength() != 5 {
		t.Fatalf("unexpected schema %v fixed=%v len=%d", s.Names(), s.FixedWidth(), s.RecordLength())
	}
}

func TestLiteralsNormalized(t *testing.T) {
	b := NewBuilder()
	err := b.AddField(FieldDef{Name: "sin", Type: "float", Min: 0, Max: 0.5, MinReplacement: -2, MaxReplacement: 2.0})
	if err != nil {
		t.Fatal(err)
	}
	err = b.AddField(FieldDef{Name: "d", Type: "date", Format: "ccyymmdde",
		Min: "date(2000, 1, 1)", MinReplacement: "2000-01-31"})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := b.Build()
	f, _ := s.Field("sin")
	if f.Min.(float64) != 0 || f.MinReplacement.(float64) != -2 {
		t.Fatalf("float literals not normalized: %#v %#v", f.Min, f.MinReplacement)
	}
	d, _ := s.Field("d")
	if d.Format.Modifier != data_types.ModifierEndOfMonth {
		t.Fatalf("format %v", d.Format)
	}
	if !d.Min.(time.Time).Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("min %v", d.Min)
	}
}

func TestReplacementIgnoredForDrop(t *testing.T) {
	b := NewBuilder()
	err := b.AddField(FieldDef{Name: "a", Type: "int", Action: "drop", Max: 5, MaxReplacement: 5})
	if err != nil {
		t.Fatalf("replacement with DROP must only warn: %v", err)
	}
	s, _ := b.Build()
	f, _ := s.Field("a")
	if f.MaxReplacement != nil || f.Action != shared.ActionDrop {
		t.Fatalf("replacement kept: %#v", f)
	}
}

func TestLegalValues(t *testing.T) {
	lv, err := NewLegalValues(data_types.Int64{}, []int{5, 3, 9, 3})
	if err != nil {
		t.Fatal(err)
	}
	if lv.Len() != 3 || !lv.Contains(int64(3)) || lv.Contains(int64(4)) || lv.Contains("3") {
		t.Fatalf("unexpected membership %v", lv.Values())
	}
	dates, err := NewLegalValues(data_types.Date{}, [2]string{"2020-05-01", "2019-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if !dates.Contains(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)) || dates.Contains(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("date membership")
	}
	if first := dates.Values()[0].(time.Time); first.Year() != 2019 {
		t.Fatalf("dates not sorted: %v", dates.Values())
	}
	same, _ := NewLegalValues(data_types.Int64{}, lv)
	if same != lv {
		t.Fatal("LegalValues input must be used as is")
	}
}

func TestLegalValuesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.dat")
	if err := os.WriteFile(path, []byte("30\n10.7\n\n20\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := NewBuilder()
	if err := b.AddField(FieldDef{Name: "code", Type: "int", LegalValuesFile: path}); err != nil {
		t.Fatal(err)
	}
	s, _ := b.Build()
	f, _ := s.Field("code")
	got := f.Legal.Values()
	if len(got) != 3 || got[0].(int64) != 10 || got[2].(int64) != 30 {
		t.Fatalf("values %v", got)
	}
}

func TestBuiltinTables(t *testing.T) {
	b := NewBuilder()
	err := b.AddField(FieldDef{Name: "st", Type: "state", LegalValues: []string{"XX"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddField(FieldDef{Name: "terr", Type: "stateterr"}); err != nil {
		t.Fatal(err)
	}
	s, _ := b.Build()
	st, _ := s.Field("st")
	if st.Legal.Contains("XX") || !st.Legal.Contains("NY") || st.Legal.Contains("PR") {
		t.Fatal("state table not attached")
	}
	terr, _ := s.Field("terr")
	if !terr.Legal.Contains("PR") || !terr.Legal.Contains("CA") {
		t.Fatal("territory table not attached")
	}
}

func TestZipTableFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ZipTableFile), []byte("60614\n00501\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := FromFile(&model.SchemaFile{TablesDir: dir, Fields: []FieldDef{{Name: "zip", Type: "zip"}}})
	if err != nil {
		t.Fatal(err)
	}
	f, _ := s.Field("zip")
	if f.Legal == nil || !f.Legal.Contains("00501") || f.Legal.Contains("12345") {
		t.Fatal("zip table not loaded")
	}

	s, err = FromFile(&model.SchemaFile{TablesDir: t.TempDir(), Fields: []FieldDef{{Name: "zip", Type: "zip"}}})
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := s.Field("zip"); f.Legal != nil {
		t.Fatal("missing zip table must leave the field without a set")
	}
}

func TestDescribe(t *testing.T) {
	s, err := FromFile(&model.SchemaFile{Fields: []FieldDef{
		{Name: "obs", Type: "int"},
		{Name: "sin", Type: "float", Min: 0.0, MinReplacement: -2.0},
		{Name: "d", Type: "date", Format: "CCYYMMDDE"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.Describe(&buf, "sin", "d"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "obs") || !strings.Contains(out, "(fix -2)") || !strings.Contains(out, "CCYYMMDDE") {
		t.Fatalf("unexpected description:\n%s", out)
	}
	if err := s.Describe(&buf, "nope"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
