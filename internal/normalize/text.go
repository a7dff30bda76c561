// Package normalize turns loosely typed raw field values into clean
// strings, UTC instants and removal flags. Every function here is total.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Clean stringifies v, folds CRLF and CR into LF and trims surrounding
// whitespace. Nil becomes the empty string.
func Clean(v any) string {
	return strings.TrimSpace(lineEndings.Replace(Stringify(v)))
}

// Stringify renders v as text without altering it otherwise.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
