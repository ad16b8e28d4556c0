package sink

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InvalidPartition replaces partition directory names that contain
// characters outside [A-Za-z0-9 ._=-].
const InvalidPartition = "garbage"

var partitionName = regexp.MustCompile(`^[A-Za-z0-9 ._=-]+$`)

// FormatValue renders a record value for text output. nil is empty.
func FormatValue(v any) string {
	switch _v := v.(type) {
	case nil:
		return ""
	case string:
		return _v
	case int64:
		return strconv.FormatInt(_v, 10)
	case float64:
		return strconv.FormatFloat(_v, 'f', -1, 64)
	case time.Time:
		return _v.Format(time.DateOnly)
	case []byte:
		return string(_v)
	case bool:
		return strconv.FormatBool(_v)
	}
	return fmt.Sprint(v)
}

// PartitionDir is the hive style "field=value" directory name.
func PartitionDir(field string, value any) string {
	dir := field + "=" + FormatValue(value)
	if dir == ".." || !partitionName.MatchString(dir) {
		return InvalidPartition
	}
	return dir
}

// outputName splits an output path into directory, file stem and
// extension. A path without an extension is a directory.
func outputName(path string) (dir, stem, ext string) {
	ext = filepath.Ext(path)
	if ext == "" {
		return path, "part", ""
	}
	return filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ext), ext
}

// WorkerSuffix names the files of worker i apart from its siblings: a..z.
func WorkerSuffix(worker int) string {
	return string(rune('a' + worker))
}

// OutputRoot is the directory every file written for path lives under.
func OutputRoot(path string) string {
	dir, _, _ := outputName(path)
	return dir
}
