package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// Model output drifts: explanatory prose around the payload, Python-style
// literals instead of JSON, numbers quoted as strings. The helpers below
// extract the first bracketed region and decode it permissively.

// extractRegion returns the first {...} or [...] region of s, using the last
// matching closer so nested payloads survive.
func extractRegion(s string) (string, bool) {
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		if start == -1 {
			continue
		}
		end := strings.LastIndexByte(s, pair[1])
		if end > start {
			return s[start : end+1], true
		}
	}
	return "", false
}

// decodeLoose unmarshals a bracketed region, falling back to a rewrite of
// Python-style literals (single quotes, None/True/False) when strict JSON
// parsing fails.
func decodeLoose(region string, v any) error {
	if err := json.Unmarshal([]byte(region), v); err == nil {
		return nil
	}
	rewritten := pythonToJSON(region)
	if err := json.Unmarshal([]byte(rewritten), v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrParse, firstLine(region))
	}
	return nil
}

// parseObject extracts and decodes the first object region of raw.
func parseObject(raw string) (map[string]any, error) {
	region, ok := extractRegion(raw)
	if !ok || !strings.HasPrefix(region, "{") {
		return nil, fmt.Errorf("%w: no object found in response: %s", domain.ErrParse, firstLine(raw))
	}
	var m map[string]any
	if err := decodeLoose(region, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// parseStringList extracts and decodes the first array region of raw as strings.
func parseStringList(raw string) ([]string, error) {
	region, ok := extractRegion(raw)
	if !ok || !strings.HasPrefix(region, "[") {
		return nil, fmt.Errorf("%w: no array found in response: %s", domain.ErrParse, firstLine(raw))
	}
	var items []any
	if err := decodeLoose(region, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// pythonToJSON rewrites Python literal syntax into JSON. Quote handling walks
// the string so apostrophes inside double-quoted values are left alone.
func pythonToJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inDouble = !inDouble
			sb.WriteByte(c)
		case c == '\'' && !inDouble:
			sb.WriteByte('"')
		default:
			sb.WriteByte(c)
		}
	}
	out := sb.String()
	out = strings.ReplaceAll(out, "None", "null")
	out = strings.ReplaceAll(out, "True", "true")
	out = strings.ReplaceAll(out, "False", "false")
	return out
}

// stringField reads m[key] as a trimmed string, tolerating numeric values.
// JSON null and the literal strings "null"/"none" read as absent.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
	switch strings.ToLower(s) {
	case "null", "none":
		return ""
	}
	return s
}

// intListField reads m[key] as an int list, tolerating string-wrapped numbers
// and a bare scalar where an array was expected.
func intListField(m map[string]any, key string) []int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []int
	for _, it := range items {
		if n, ok := toInt(it); ok {
			out = append(out, n)
		}
	}
	return out
}

// stringListField reads m[key] as a string list, tolerating a bare scalar.
func stringListField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// parseIntList extracts an integer id list from raw model output. The literal
// token "none" (any case) means an intentionally empty list, not an error.
func parseIntList(raw string) ([]int, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, "none") {
		return []int{}, nil
	}

	if region, ok := extractRegion(trimmed); ok && strings.HasPrefix(region, "[") {
		var items []any
		if err := decodeLoose(region, &items); err != nil {
			return nil, err
		}
		out := make([]int, 0, len(items))
		for _, it := range items {
			if n, ok := toInt(it); ok {
				out = append(out, n)
			}
		}
		return out, nil
	}

	// Bare comma-separated ids without brackets.
	var out []int
	for _, part := range strings.Split(trimmed, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: no id list found in response: %s", domain.ErrParse, firstLine(raw))
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no id list found in response: %s", domain.ErrParse, firstLine(raw))
	}
	return out, nil
}

// firstLine keeps trace and error messages short when the model rambles.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
