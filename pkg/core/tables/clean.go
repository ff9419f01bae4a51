package tables

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyAndSpace = regexp.MustCompile(`[$€£¥₹\s]`)

// CleanNumeric converts a financial numeric string to a float.
//
// Handles:
//   - currency symbols: "$1,234.56" -> 1234.56
//   - parentheses as negative: "(1,234)" -> -1234.0
//   - dashes as zero: "-" -> 0.0
//   - percentages: "12.5%" -> 12.5
//   - thousands separators: "1,234,567" -> 1234567.0
//   - "n/a"-style markers and empty cells -> nil
func CleanNumeric(value string) *float64 {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}

	switch text {
	case "-", "—", "–", "−":
		zero := 0.0
		return &zero
	}

	switch strings.ToLower(text) {
	case "n/a", "na", "nm", "n/m", "nil":
		return nil
	}

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}

	text = currencyAndSpace.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "%", "")
	text = strings.ReplaceAll(text, ",", "")

	if strings.HasPrefix(text, "-") {
		negative = true
		text = text[1:]
	} else if strings.HasPrefix(text, "−") {
		negative = true
		text = strings.TrimPrefix(text, "−")
	}

	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	if negative {
		parsed = -parsed
	}
	return &parsed
}

// IsNumericCell reports whether a cell cleans to a number.
func IsNumericCell(value string) bool {
	return CleanNumeric(value) != nil
}
