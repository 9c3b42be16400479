package fieldmap

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	flattenMaxDepth  = 6
	flattenMaxLeaves = 200
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Leaf is one scalar value found while flattening a raw payload, paired
// with the path it was found under.
type Leaf struct {
	Path  string
	Value string
}

// Flatten walks the raw payload and collects string/number/boolean leaves
// into a stable, path-sorted slice. Depth and leaf count are bounded so
// pathological input cannot blow up the request.
func Flatten(payload any) []Leaf {
	var leaves []Leaf
	flattenInto(&leaves, "", payload, 0)
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Path < leaves[j].Path })
	return leaves
}

func flattenInto(leaves *[]Leaf, path string, val any, depth int) {
	if depth > flattenMaxDepth || len(*leaves) >= flattenMaxLeaves {
		return
	}
	switch v := val.(type) {
	case map[string]any:
		for k, child := range v {
			flattenInto(leaves, joinPath(path, k), child, depth+1)
		}
	case []any:
		for i, child := range v {
			flattenInto(leaves, joinPath(path, strconv.Itoa(i)), child, depth+1)
		}
	case string, float64, bool:
		s := Stringify(v)
		if s != "" {
			*leaves = append(*leaves, Leaf{Path: path, Value: s})
		}
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// A Strategy inspects the flattened view and either finds a value or
// reports not-found. Strategies are tried in order; the first hit wins.
type Strategy func(leaves []Leaf) (string, bool)

// RescueEmail returns the first leaf value that looks like an email.
func RescueEmail(leaves []Leaf) (string, bool) {
	for _, l := range leaves {
		if emailRe.MatchString(l.Value) {
			return l.Value, true
		}
	}
	return "", false
}

// RescueName picks the longest multi-word, non-numeric, non-email
// candidate, preferring values that contain a space. When two candidates
// tie, the first after filtering wins; that can misassign a business name
// as the person's name, which is a known limitation of the source data.
func RescueName(leaves []Leaf) (string, bool) {
	var best string
	for _, l := range leaves {
		v := l.Value
		if emailRe.MatchString(v) || isNumericish(v) {
			continue
		}
		if !strings.Contains(v, " ") {
			continue
		}
		if len(v) > len(best) {
			best = v
		}
	}
	if best != "" {
		return best, true
	}
	// No multi-word candidate; fall back to the longest plain word.
	for _, l := range leaves {
		v := l.Value
		if emailRe.MatchString(v) || isNumericish(v) || v == "true" || v == "false" {
			continue
		}
		if len(v) > len(best) {
			best = v
		}
	}
	return best, best != ""
}

func isNumericish(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && digits*2 >= len(s)
}

// Rescue fills missing name/email on lf by running the extraction
// strategies over the flattened raw payload. Existing values are never
// overwritten.
func Rescue(lf *LeadFields, rawPayload any) {
	if lf.Name != "" && lf.Email != "" {
		return
	}
	leaves := Flatten(rawPayload)
	if lf.Email == "" {
		if v, ok := RescueEmail(leaves); ok {
			lf.Email = v
		}
	}
	if lf.Name == "" {
		if v, ok := RescueName(leaves); ok {
			lf.Name = v
		}
	}
}
