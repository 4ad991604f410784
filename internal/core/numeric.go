package core

// numeric.go coerces locale-formatted numeric text from sales reports into
// float64 values.
//
// The reports mix conventions freely:
//   - Thousands separators written as "." or "," ("1.234.567", "12,500")
//   - Decimal commas ("1,5")
//   - Dash or blank for zero ("-", "")
//
// Coercion never fails. Anything that cannot be read as a number becomes 0.

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToNumber converts a single cell to a float64.
//
// Rules, in order:
//  1. Blank or "-" is 0.
//  2. A "." or "," immediately followed by exactly three digits (and then a
//     non-word character or the end of the text) is a thousands separator and
//     is removed: "1.234" -> "1234", "1.23" is untouched.
//  3. Any remaining "," is a decimal point.
//  4. If that does not parse, every character other than digits, "-" and "."
//     is stripped and parsing is retried.
//  5. If that fails too, the value is 0.
//
// Non-finite results (NaN, Inf) count as parse failures.
func ToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}

	s = stripThousands(s)
	s = strings.ReplaceAll(s, ",", ".")

	if f, ok := parseFinite(s); ok {
		return f
	}
	if f, ok := parseFinite(keepNumericChars(s)); ok {
		return f
	}
	return 0
}

// ToNumbers applies ToNumber to a whole column. The literal tokens "nan" and
// "None", which spreadsheet exports use for missing values, are read as 0.
func ToNumbers(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch strings.TrimSpace(v) {
		case "nan", "None":
			out[i] = 0
		default:
			out[i] = ToNumber(v)
		}
	}
	return out
}

// stripThousands removes separators that are followed by a run of exactly
// three digits ending at a word boundary.
func stripThousands(s string) string {
	if !strings.ContainsAny(s, ".,") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c == '.' || c == ',') && isThousandsGroup(s, i+1) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// isThousandsGroup reports whether s[at:] starts with three digits that are
// not followed by another word character.
func isThousandsGroup(s string, at int) bool {
	if at+3 > len(s) {
		return false
	}
	for i := at; i < at+3; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return at+3 == len(s) || !startsWithWordChar(s[at+3:])
}

func keepNumericChars(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, s)
}

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// startsWithWordChar reports whether s begins with a letter, digit or
// underscore, in the Unicode sense. Symbols such as "€" are not word runes.
func startsWithWordChar(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
