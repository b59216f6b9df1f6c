package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const maxFormattedLen = 100

// FormatValue renders a decoded field value for error messages and CLI
// output. Long values are truncated.
func FormatValue(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		s = fmt.Sprintf("%q", x)
	case bool:
		return fmt.Sprintf("%v", x)
	case json.Number:
		return x.String()
	case int, int64, float64:
		return fmt.Sprintf("%v", x)
	default:
		if b, err := json.Marshal(v); err == nil {
			s = string(b)
		} else {
			s = fmt.Sprintf("%v", v)
		}
	}
	if len(s) > maxFormattedLen {
		s = s[:maxFormattedLen-3] + "..."
	}
	return s
}

// FormatData formats a block data map as indented "key: value" lines with
// keys sorted.
func FormatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "\n    %s: %s", k, FormatValue(data[k]))
	}
	return b.String()
}
