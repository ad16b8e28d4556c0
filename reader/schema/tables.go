package schema

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/metrico/datareader/reader/data_types"
)

// ZipTableFile is looked up in the tables directory; the zip table is too
// large to compile in.
const ZipTableFile = "zips.dat"

//go:embed tables/states.dat tables/territories.dat
var embedded embed.FS

var (
	stateTable = sync.OnceValues(func() (LegalValues, error) {
		return embeddedTable("tables/states.dat")
	})
	stateTerrTable = sync.OnceValues(func() (LegalValues, error) {
		states, err := stateTable()
		if err != nil {
			return nil, err
		}
		terr, err := embeddedTable("tables/territories.dat")
		if err != nil {
			return nil, err
		}
		return fromParsed(data_types.StateTerr{}, append(states.Values(), terr.Values()...)), nil
	})

	zipTablesMtx sync.Mutex
	zipTables    = map[string]func() (LegalValues, error){}
)

func embeddedTable(name string) (LegalValues, error) {
	data, err := embedded.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return readLegalValues(data_types.String{}, name, bufio.NewScanner(bytes.NewReader(data)))
}

// BuiltinTable returns the table attached to ZIP, STATE and STATETERR
// fields, or nil for other types. Tables are loaded once per process and
// shared by every schema. A missing zip table yields nil: zip fields then
// only get the format check.
func BuiltinTable(tp data_types.DataType, tablesDir string) (LegalValues, error) {
	switch tp.(type) {
	case data_types.State:
		return stateTable()
	case data_types.StateTerr:
		return stateTerrTable()
	case data_types.Zip:
		return zipTable(tablesDir)()
	}
	return nil, nil
}

func zipTable(dir string) func() (LegalValues, error) {
	zipTablesMtx.Lock()
	defer zipTablesMtx.Unlock()
	if load, ok := zipTables[dir]; ok {
		return load
	}
	load := sync.OnceValues(func() (LegalValues, error) {
		path := filepath.Join(dir, ZipTableFile)
		if dir == "" {
			slog.Warn("no tables directory configured, zip codes are checked for format only")
			return nil, nil
		}
		lv, err := LoadLegalValuesFile(data_types.Zip{}, path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("zip table not found, zip codes are checked for format only", "path", path)
			return nil, nil
		}
		return lv, err
	})
	zipTables[dir] = load
	return load
}
