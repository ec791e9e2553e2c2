package structure

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented letters and drops their combining marks,
// so "é" folds to "e" and "ñ" to "n".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// symbolReplacements covers characters that survive diacritic folding but
// still fall outside the head unit's display range.
var symbolReplacements = map[rune]string{
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'ß': "ss",
	'¿': "",
	'¡': "",
	'«': "\"",
	'»': "\"",
	'°': "deg",
	'±': "+-",
	'µ': "u",
	'¶': "",
	'·': "-",
	'¸': "",
	'¹': "1",
	'²': "2",
	'³': "3",
	'º': "o",
	'¼': "1-4",
	'½': "1-2",
	'¾': "3-4",
	'×': "x",
	'÷': "-",
}

// safeReplacement suggests an ASCII substitute for an unsafe rune, or ""
// when nothing sensible exists.
func safeReplacement(r rune) string {
	if rep, ok := symbolReplacements[r]; ok {
		return rep
	}
	folded, _, err := transform.String(stripMarks, string(r))
	if err == nil && folded != string(r) && folded != "" {
		if rep, ok := symbolReplacements[[]rune(folded)[0]]; ok {
			return rep
		}
		return folded
	}
	return ""
}

func describeUnsafe(unsafe []rune) string {
	parts := make([]string, 0, len(unsafe))
	for _, r := range unsafe {
		if rep := safeReplacement(r); rep != "" {
			parts = append(parts, fmt.Sprintf("%q (use %q)", r, rep))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q (remove)", r))
	}
	return "characters may not display on the head unit: " + strings.Join(parts, ", ")
}
