package gaso

import (
	"strconv"
	"strings"
)

// ParseBalance converts a currency-like string from the dashboard into a
// number. The backend formats amounts inconsistently ("S/ 5.000", "5.000,50",
// "5000"), so separator roles are inferred:
//
//   - both '.' and ',' present: '.' groups thousands, ',' is the decimal
//   - only ',': decimal separator
//   - only '.': thousands separator when more than 2 digits follow the last
//     '.', decimal otherwise
//
// A value like "1.234" is therefore read as 1234, which would misread a
// genuine 3-decimal amount; known heuristic limitation, kept until the
// upstream format is clarified.
//
// Unparsable input yields 0, never an error.
func ParseBalance(raw string) float64 {
	clean := strings.TrimSpace(strings.ReplaceAll(raw, "S/", ""))
	if clean == "" {
		return 0
	}

	hasDot := strings.Contains(clean, ".")
	hasComma := strings.Contains(clean, ",")

	switch {
	case hasDot && hasComma:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasDot:
		parts := strings.Split(clean, ".")
		if len(parts) == 2 && len(parts[1]) > 2 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return value
}
