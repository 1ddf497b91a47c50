package assist

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/jsonc"
)

// extractJSON returns the text between the first open and the last close
// byte of reply, converted from relaxed JSON (comments, trailing commas) to
// strict JSON.
func extractJSON(reply string, open, close byte) ([]byte, bool) {
	start := strings.IndexByte(reply, open)
	end := strings.LastIndexByte(reply, close)
	if start < 0 || end <= start {
		return nil, false
	}
	return jsonc.ToJSON([]byte(reply[start : end+1])), true
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
