// Package slug converts display names into URL-safe identifiers and back.
//
// Reversal is best-effort: a slug maps back to its exact original text only
// when the Codec that produced it still holds the mapping in its store.
package slug

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the slug length limit used when none is given.
const DefaultMaxLength = 100

// ErrNoRoomForSuffix is returned by EnsureUnique when maxLength cannot hold
// at least one character of base followed by a numeric suffix.
var ErrNoRoomForSuffix = errors.New("max length leaves no room for a unique suffix")

// substitutions maps language-specific letters to their conventional ASCII
// spelling. Keys are lowercase and composed; the table is applied after NFC
// normalization and lowercasing.
var substitutions = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
	"æ", "ae",
	"ø", "oe",
	"å", "aa",
	"ñ", "n",
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators = regexp.MustCompile(`[\s-]+`)
)

// Slugify returns the slug for input without recording anything. A
// maxLength of zero or less selects DefaultMaxLength.
func Slugify(input string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if strings.TrimSpace(input) == "" {
		return ""
	}

	s := substitutions.Replace(strings.ToLower(norm.NFC.String(input)))
	s = stripMarks(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)

	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}
	return s
}

// stripMarks decomposes s and drops nonspacing combining marks, so "é"
// becomes "e".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// EnsureUnique returns base when it is not in existing. Otherwise it appends
// -1, -2, ... (shortening base as needed to stay within maxLength) until the
// candidate is free. existing is never modified.
func EnsureUnique(base string, existing []string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base, nil
	}

	for n := 1; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > maxLength {
			cut := max(maxLength-len(suffix), 0)
			stem = strings.TrimRight(stem[:cut], "-")
		}
		if stem == "" {
			return "", ErrNoRoomForSuffix
		}
		candidate := stem + suffix
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
