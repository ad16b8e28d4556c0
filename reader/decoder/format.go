package decoder

import (
	"bytes"
	"fmt"
	"time"
)

func bound(op string, v any) string {
	if t, ok := v.(time.Time); ok {
		return op + " " + t.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s %v", op, v)
}

func fmtColumns(n int, qualifier string) string {
	return fmt.Sprintf("%s %d columns", qualifier, n)
}

func joinRaw(fields [][]byte, delimiter string) string {
	return string(bytes.Join(fields, []byte(delimiter)))
}
