package enrich

import (
	"strings"
	"unicode"
)

// smallWords stay lowercase unless they open or close the title.
var smallWords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {},
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// splitAffixes peels leading and trailing punctuation off a word so
// quotes and parens keep their place around the cased core.
func splitAffixes(word string) (lead, core, tail string) {
	runes := []rune(word)
	start := 0
	for start < len(runes) && !isWordRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isWordRune(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ToTitleCase lowercases the whole title and re-capitalizes each word,
// leaving small connective words down except in first or last position.
func ToTitleCase(title string) string {
	words := strings.Fields(strings.ToLower(title))

	for i, word := range words {
		lead, core, tail := splitAffixes(word)
		if core == "" {
			continue
		}
		if i != 0 && i != len(words)-1 {
			if _, small := smallWords[core]; small {
				words[i] = lead + core + tail
				continue
			}
		}
		words[i] = lead + capitalize(core) + tail
	}
	return strings.Join(words, " ")
}
