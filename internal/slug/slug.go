// Package slug builds URL-safe identifiers from human-readable names.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cyrillic maps lowercase Cyrillic letters to their Latin transliteration.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Slugify lowercases text, transliterates Cyrillic, drops diacritics and
// collapses every run of non-alphanumeric characters into a single hyphen.
// Example: "Tandem Jump: 4000 m!" -> "tandem-jump-4000-m"
func Slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if latin, ok := cyrillic[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	// Decompose accented letters and strip the combining marks.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, b.String())
	if err != nil {
		folded = b.String()
	}

	var out strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && out.Len() > 0 {
				out.WriteByte('-')
			}
			pendingHyphen = false
			out.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return out.String()
}

// EnsureUnique returns base when it is not among existing. Otherwise it tries
// base-1, base-2, ... and returns the first free candidate.
func EnsureUnique(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	if _, ok := taken[base]; !ok {
		return base
	}

	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
