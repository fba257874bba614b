package metadata

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of a free-form model reply.
// It tries the whole trimmed reply, then the span from the first "{" to the
// last "}". Anything else yields an empty object.
func ExtractJSONObject(text string) map[string]any {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
			return obj
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj
		}
	}
	return map[string]any{}
}

// ExtractJSONArray is the array counterpart of ExtractJSONObject, using the
// span from the first "[" to the last "]". It returns false when no array
// could be parsed.
func ExtractJSONArray(text string) ([]any, bool) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "[") {
		start := strings.Index(s, "[")
		end := strings.LastIndex(s, "]")
		if start != -1 && end > start {
			s = s[start : end+1]
		}
	}

	var arr []any
	if err := json.Unmarshal([]byte(s), &arr); err != nil || arr == nil {
		return nil, false
	}
	return arr, true
}
