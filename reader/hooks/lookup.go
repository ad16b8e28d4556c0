package hooks

import (
	"bufio"
	"cmp"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"github.com/metrico/datareader/reader/shared"
)

// LookupConfig describes a '|'-delimited enrichment table. The first
// column is the key, the rest are named by Columns.
type LookupConfig struct {
	File string `json:"file" mapstructure:"file"`
	// Key is the record field matched against the first column.
	Key     string   `json:"key" mapstructure:"key"`
	Columns []string `json:"columns" mapstructure:"columns"`
	// Output is the subset of Columns added to the record. All when empty.
	Output []string `json:"output" mapstructure:"output"`
	// Matched names an optional bool field set to whether the key was found.
	Matched string `json:"matched" mapstructure:"matched"`
	// Check names a column that must also equal the record field of the
	// same name for Matched to be true.
	Check string `json:"check" mapstructure:"check"`
}

type lookupRow struct {
	key    string
	values []string
}

// Lookup adds the table columns of the row whose key equals the record's
// key field. Unmatched records get nil columns and are never dropped.
type Lookup struct {
	cfg    LookupConfig
	rows   []lookupRow
	output []int
	check  int
}

func NewLookup(cfg LookupConfig) (*Lookup, error) {
	if cfg.Key == "" || len(cfg.Columns) == 0 {
		return nil, shared.NewConfigError("lookup", errors.New("key and columns are required"))
	}
	l := &Lookup{cfg: cfg, check: -1}
	names := cfg.Output
	if len(names) == 0 {
		names = cfg.Columns
	}
	for _, n := range names {
		i := slices.Index(cfg.Columns, n)
		if i < 0 {
			return nil, shared.NewConfigError("lookup", errors.Errorf("output column %s not in columns", n))
		}
		l.output = append(l.output, i)
	}
	if cfg.Check != "" {
		if l.check = slices.Index(cfg.Columns, cfg.Check); l.check < 0 {
			return nil, shared.NewConfigError("lookup", errors.Errorf("check column %s not in columns", cfg.Check))
		}
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lookup) load() error {
	f, err := os.Open(l.cfg.File)
	if err != nil {
		return shared.NewResourceError(l.cfg.File, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < len(l.cfg.Columns)+1 {
			return shared.NewResourceError(l.cfg.File,
				errors.Errorf("line %q has %d columns, expected %d", line, len(parts), len(l.cfg.Columns)+1))
		}
		row := lookupRow{key: strings.TrimSpace(parts[0]), values: make([]string, len(l.cfg.Columns))}
		for i := range l.cfg.Columns {
			row.values[i] = strings.TrimSpace(parts[i+1])
		}
		l.rows = append(l.rows, row)
	}
	if err := sc.Err(); err != nil {
		return shared.NewResourceError(l.cfg.File, err)
	}
	slices.SortStableFunc(l.rows, func(a, b lookupRow) int { return cmp.Compare(a.key, b.key) })
	return nil
}

func (l *Lookup) Len() int {
	return len(l.rows)
}

func (l *Lookup) find(key string) (lookupRow, bool) {
	i, ok := slices.BinarySearchFunc(l.rows, key, func(r lookupRow, k string) int {
		return cmp.Compare(r.key, k)
	})
	if !ok {
		return lookupRow{}, false
	}
	return l.rows[i], true
}

func (l *Lookup) Process(rec *shared.Record) (bool, error) {
	key, isString := rec.Value(l.cfg.Key).(string)
	row, found := l.find(key)
	found = found && isString
	matched := found
	if matched && l.check >= 0 {
		v, _ := rec.Value(l.cfg.Check).(string)
		matched = v == row.values[l.check]
	}
	for _, i := range l.output {
		if found {
			rec.Set(l.cfg.Columns[i], row.values[i])
		} else {
			rec.Set(l.cfg.Columns[i], nil)
		}
	}
	if l.cfg.Matched != "" {
		rec.Set(l.cfg.Matched, matched)
	}
	return true, nil
}
