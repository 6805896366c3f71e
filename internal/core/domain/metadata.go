package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Recognised metadata keys. Everything else passes through untouched.
const (
	MetaTitle = "title"
	MetaTags  = "tags"
)

// Metadata is the parsed header block of a note. Values are whatever the
// header decoder produced: scalars, lists or nested maps. Consumers must
// tolerate any key being absent.
type Metadata map[string]any

// Text returns the value for key rendered as text.
// Lists and maps are not considered strings.
func (m Metadata) Text(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch v.(type) {
	case []any, []string, map[string]any:
		return "", false
	default:
		return FormatValue(v), true
	}
}

// FormatValue renders a header value for display. Dates without a clock
// print as YYYY-MM-DD; lists print as "[a, b]".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, FormatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}

// Title returns the non-blank title value, if any.
func (m Metadata) Title() (string, bool) {
	s, ok := m.Text(MetaTitle)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// Tags returns the tag list. A comma-separated string is split.
func (m Metadata) Tags() []string {
	var tags []string
	switch v := m[MetaTags].(type) {
	case []any:
		for _, t := range v {
			if t == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(t)); s != "" {
				tags = append(tags, s)
			}
		}
	case []string:
		for _, t := range v {
			if s := strings.TrimSpace(t); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, t := range strings.Split(v, ",") {
			if s := strings.TrimSpace(t); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
