// Package identity resolves the many observed spellings of one person's
// name into a single canonical record, and merges evidence about that
// person without ever losing information.
package identity

import (
	"sort"
	"strings"
)

// particles are multi-word surname particles kept lower-case inside a name
// ("Ludwig van Beethoven") but title-cased when they start it ("Van Dyke").
var particles = map[string]bool{
	"van": true, "de": true, "der": true, "den": true, "von": true,
	"di": true, "da": true, "del": true, "della": true, "la": true,
	"le": true, "bin": true, "ibn": true, "ter": true, "ten": true,
}

// Canonical normalizes a raw name to its canonical "First Last" spelling.
//
// Steps, in order: strip surrounding quotes and parenthetical asides,
// flip "Last, First" to "First Last", title-case each word, then lower
// known particles unless they start the name. Each step is total; an
// unrecognizable input normalizes to a trimmed, cased version of itself.
func Canonical(raw string) string {
	s := stripDecorations(raw)

	// "Last, First" → "First Last". Only the first comma is structural;
	// anything after a second comma is a suffix and is dropped.
	if idx := strings.Index(s, ","); idx > 0 {
		last := strings.TrimSpace(s[:idx])
		rest := strings.TrimSpace(s[idx+1:])
		if jdx := strings.Index(rest, ","); jdx >= 0 {
			rest = strings.TrimSpace(rest[:jdx])
		}
		if rest != "" {
			s = rest + " " + last
		} else {
			s = last
		}
	}

	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && particles[lower] {
			words[i] = lower
			continue
		}
		words[i] = titleWord(w)
	}

	return strings.Join(words, " ")
}

// SamePerson reports whether two raw names refer to the same person under
// the documented matching rule: canonical spellings are string-equal, or
// their word-sets are equal and both names have at least two words. The
// word-set rule deliberately folds "Jennifer Lee" and "Lee Jennifer".
func SamePerson(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	if ca == cb {
		return ca != ""
	}
	return wordSetKey(ca) != "" && wordSetKey(ca) == wordSetKey(cb)
}

// wordSetKey returns an order-independent key for a canonical name, or ""
// for names with fewer than two words (single-word names only match
// exactly).
func wordSetKey(canonical string) string {
	words := strings.Fields(strings.ToLower(canonical))
	if len(words) < 2 {
		return ""
	}
	sort.Strings(words)
	return strings.Join(words, "|")
}

// stripDecorations removes surrounding quote marks and any parenthetical
// aside ("Jane Smith (she/her)" → "Jane Smith").
func stripDecorations(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)

	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		end := strings.Index(s[open:], ")")
		if end < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+end+1:]
	}

	return strings.TrimSpace(s)
}

// titleWord upper-cases the first letter of a word, preserving internal
// capitals ("McRae", "O'Brien") and hyphenated parts ("Smith-Jones").
func titleWord(w string) string {
	if w == "" {
		return w
	}
	if idx := strings.Index(w, "-"); idx > 0 && idx < len(w)-1 {
		return titleWord(w[:idx]) + "-" + titleWord(w[idx+1:])
	}
	runes := []rune(w)
	head := strings.ToUpper(string(runes[0]))
	tail := string(runes[1:])
	if tail == strings.ToLower(tail) || tail == strings.ToUpper(tail) {
		// No internal capitals worth preserving; normalize fully.
		tail = strings.ToLower(tail)
	}
	return head + tail
}
