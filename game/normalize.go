package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// letterFolds maps visually and phonetically confusable Cyrillic letters to a
// single base letter, so "тёрка"/"терка" and "йогурт"/"иогурт" compare equal.
var letterFolds = strings.NewReplacer("э", "е", "ё", "е", "й", "и")

// Normalize canonicalizes raw answer text into a dictionary key: lowercase,
// letter folds, strip everything that is neither alphanumeric nor listed in
// extraSymbols, collapse repeated letters and remove every exclusion
// substring. Normalizing an already-normalized string returns it unchanged.
func Normalize(text string, exclusions []string, extraSymbols string) string {
	text = cases.Lower(language.Russian).String(text)
	text = letterFolds.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(extraSymbols, r) {
			b.WriteRune(r)
		}
	}
	text = CollapseRepeats(b.String())

	for _, word := range exclusions {
		text = strings.ReplaceAll(text, word, "")
	}
	return text
}

// CollapseRepeats shrinks every run of an identical rune down to a single
// occurrence, absorbing doubled-letter misspellings. Digits and the runes
// i, x and + are kept as-is so Roman numerals and numbers survive.
func CollapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && !unicode.IsDigit(r) && r != 'i' && r != 'x' && r != '+' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
