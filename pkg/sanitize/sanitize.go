package sanitize

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"
)

const (
	// TruncationMarker is appended to over-long strings and substituted for
	// over-deep subtrees. Truncation keeps the total length at MaxTextLen so
	// a second pass leaves the string untouched.
	TruncationMarker = "...[truncated]"

	// MaxTextLen is the ceiling (in runes) for a single string value.
	MaxTextLen = 1_000_000

	// MaxDepth bounds recursion through nested maps and slices.
	MaxDepth = 32

	maxFilenameLen = 200
)

// Text makes a string safe for a Postgres text/jsonb column: control characters
// other than tab, newline and carriage return are removed (Postgres rejects
// NUL outright, the rest just corrupt downstream consumers), and the result is
// clamped to MaxTextLen runes.
func Text(s string) string {
	return ClampText(s, MaxTextLen)
}

// ClampText is Text with an explicit rune ceiling.
func ClampText(s string, maxLen int) string {
	cleaned := stripControl(s)
	if utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	runes := []rune(cleaned)
	keep := maxLen - len(TruncationMarker)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + TruncationMarker
}

// stripControl drops C0 controls except \t \n \r, plus DEL and the C1 range.
func stripControl(s string) string {
	clean := true
	for _, r := range s {
		if isStripped(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isStripped(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isStripped(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}

// Value walks an arbitrary JSON-bound document and returns a form that will
// round-trip through encoding/json and a jsonb column without error:
//   - strings are passed through Text
//   - NaN values vanish (map entries dropped, slice elements become nil)
//   - +/-Inf clamp to the largest finite float64
//   - subtrees beyond MaxDepth collapse to TruncationMarker
//   - non-string map keys are stringified
//   - byte slices that are not valid UTF-8 become a length placeholder
//
// Sanitization is idempotent: Value(Value(x)) is deep-equal to Value(x).
func Value(v any) any {
	out, ok := sanitizeValue(v, 0)
	if !ok {
		return nil
	}
	return out
}

// sanitizeValue reports ok=false only for values that should vanish entirely (NaN).
func sanitizeValue(v any, depth int) (any, bool) {
	if v == nil {
		return nil, true
	}
	if depth >= MaxDepth {
		return TruncationMarker, true
	}

	switch t := v.(type) {
	case string:
		return Text(t), true
	case bool:
		return t, true
	case float64:
		return sanitizeFloat(t)
	case float32:
		return sanitizeFloat(float64(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return t, true
	case []byte:
		if utf8.Valid(t) {
			return Text(string(t)), true
		}
		return fmt.Sprintf("[binary data: %d bytes]", len(t)), true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			cleaned, ok := sanitizeValue(val, depth+1)
			if !ok {
				continue
			}
			out[Text(k)] = cleaned
		}
		return out, true
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			cleaned, ok := sanitizeValue(val, depth+1)
			if !ok {
				cleaned = nil
			}
			out[i] = cleaned
		}
		return out, true
	}

	// Uncommon shapes (typed maps, typed slices) go through reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := stringifyKey(iter.Key())
			cleaned, ok := sanitizeValue(iter.Value().Interface(), depth+1)
			if !ok {
				continue
			}
			out[key] = cleaned
		}
		return out, true
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cleaned, ok := sanitizeValue(rv.Index(i).Interface(), depth+1)
			if !ok {
				cleaned = nil
			}
			out[i] = cleaned
		}
		return out, true
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return sanitizeValue(rv.Elem().Interface(), depth)
	}

	return v, true
}

func sanitizeFloat(f float64) (any, bool) {
	switch {
	case math.IsNaN(f):
		return nil, false
	case math.IsInf(f, 1):
		return math.MaxFloat64, true
	case math.IsInf(f, -1):
		return -math.MaxFloat64, true
	}
	return f, true
}

func stringifyKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return Text(k.String())
	}
	return Text(fmt.Sprintf("%v", k.Interface()))
}

// Filename makes an arbitrary (possibly user- or URL-derived) name safe as a
// flat workspace path segment: filesystem-reserved characters become
// underscores, control characters are removed, and the base name is capped at
// 200 runes while keeping the extension.
func Filename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			// drop
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	ext := filepath.Ext(cleaned)
	base := strings.TrimSuffix(cleaned, ext)
	baseRunes := []rune(base)
	limit := maxFilenameLen - utf8.RuneCountInString(ext)
	if limit < 1 {
		limit = 1
	}
	if len(baseRunes) > limit {
		base = string(baseRunes[:limit])
	}
	return base + ext
}
