// Package fieldmap turns arbitrary form-builder payloads into canonical
// lead fields. Everything in this package is pure and never returns an
// error: unknown input degrades to "not found", not to a failure.
package fieldmap

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bracketKeyRe  = regexp.MustCompile(`^(?:form_)?fields\[([^\]]+)\](?:\[value\])?$`)
	keySeparators = regexp.MustCompile(`[\s\-]+`)
)

// NormalizeKey canonicalizes a raw payload key: strips the "no label "
// prefix some builders emit for untitled fields, lowercases, collapses
// whitespace and dashes into underscores and trims leading/trailing
// underscores.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "no label ")
	k = keySeparators.ReplaceAllString(k, "_")
	return strings.Trim(k, "_")
}

// Unwrap flattens one level of the form-builder field envelopes into a
// plain key->value string map. It handles three conventions on top of
// plain keys:
//
//	fields[id]           (bracket keys, urlencoded bodies)
//	fields[id][value]
//	{"fields": {"id": {"value": v}}} and {"form_fields": {...}} (JSON)
//
// Keys are normalized on the way out. Later duplicates win, matching the
// iteration behavior of the original form integrations.
func Unwrap(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for key, val := range payload {
		if m := bracketKeyRe.FindStringSubmatch(key); m != nil {
			put(out, m[1], val)
			continue
		}
		if key == "fields" || key == "form_fields" {
			if nested, ok := val.(map[string]any); ok {
				for id, fv := range nested {
					put(out, id, fv)
				}
				continue
			}
		}
		put(out, key, val)
	}
	return out
}

func put(dst map[string]string, key string, val any) {
	k := NormalizeKey(key)
	if k == "" {
		return
	}
	dst[k] = Stringify(unwrapValue(val))
}

// unwrapValue digs "value" out of a field object, e.g. {"value": "x",
// "title": "Phone"}.
func unwrapValue(val any) any {
	if m, ok := val.(map[string]any); ok {
		if v, ok := m["value"]; ok {
			return v
		}
	}
	return val
}

// Stringify renders a scalar payload value as a string. Non-scalar values
// fall back to fmt so the mapper never loses data silently.
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers arrive as float64; render integers without the
		// trailing ".000000".
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
