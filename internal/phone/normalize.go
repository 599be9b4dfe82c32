// Package phone canonicalizes Indonesian phone numbers into the identity key
// used for customer resolution.
package phone

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// CountryPrefix is the leading country code of every canonical phone.
const CountryPrefix = "62"

// MinKeyLength is the shortest canonical phone accepted as a grouping key.
const MinKeyLength = 10

var validRe = regexp.MustCompile(`^62\d{8,13}$`)

// Normalize converts a raw phone string into its canonical digit-only form:
//  1. Recovering numbers a spreadsheet rewrote in scientific notation ("6.28524E+12")
//  2. Stripping every non-digit
//  3. Rewriting the prefix so the result starts with 62
//
// Normalize never fails. Malformed input degrades to whatever digits it holds;
// use IsValid or Key before treating the result as an identity.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.ContainsAny(raw, "eE") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			raw = strconv.FormatFloat(math.Round(f), 'f', 0, 64)
		}
	}

	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return CountryPrefix + digits[1:]
	case strings.HasPrefix(digits, "8"):
		return CountryPrefix + digits
	case !strings.HasPrefix(digits, CountryPrefix):
		return CountryPrefix + digits
	default:
		return digits
	}
}

// IsValid reports whether canonical is a well-formed Indonesian number:
// 62 followed by 8 to 13 digits.
func IsValid(canonical string) bool {
	return validRe.MatchString(canonical)
}

// Key returns the normalized phone and whether it is long enough to group on.
// Clustering and profiling both key on this, so a phone is either in both views or neither.
func Key(raw string) (string, bool) {
	n := Normalize(raw)
	return n, len(n) >= MinKeyLength
}

// IsScientific reports whether raw looks like a number mangled into exponent form.
func IsScientific(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.ContainsAny(raw, "eE") {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

func digitsOnly(s string) string {
	// Full-width digits show up in data pasted from some mobile keyboards.
	s = width.Narrow.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
