package fieldmap

import (
	"strconv"
	"strings"
)

// ParseCurrency coerces a monetary-looking string ("R$ 450,50", "450.50",
// "1.450,50") to a float. Everything except digits, separators and a
// leading minus is stripped first, then the decimal separator is
// inferred: when both comma and dot are present the dot is a thousands
// separator, a lone comma is the decimal mark. Unparseable input yields
// nil, never an error.
func ParseCurrency(raw string) *float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
