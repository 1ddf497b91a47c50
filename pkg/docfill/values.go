package docfill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Values maps placeholder labels to the text that replaces them.
type Values map[string]string

// Lookup resolves a label by exact key first and by its trimmed form second.
func (v Values) Lookup(label string) (string, bool) {
	if value, ok := v[label]; ok {
		return value, true
	}
	value, ok := v[strings.TrimSpace(label)]
	return value, ok
}

// Clone returns a shallow copy of the map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// ValuesFrom converts decoded JSON or YAML data into Values using Stringify.
func ValuesFrom(data map[string]any) Values {
	values := make(Values, len(data))
	for k, v := range data {
		values[k] = Stringify(v)
	}
	return values
}

// Stringify renders a decoded JSON or YAML value as placeholder text.
// Strings pass through, nil becomes "", numbers and booleans use their
// literal form and anything else is encoded as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}
