package game

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	bracketGroupRe = regexp.MustCompile(`\(([^)]*)\)`)
	ordinalRe      = regexp.MustCompile(`^\d+[ия]$`)
)

// Spelled Russian ordinals and Roman numerals for the ordinal token expansion,
// already in canonical (normalized and collapsed) form.
var (
	maleOrdinals = []string{
		"нулевои", "первыи", "второи", "трети", "четвертыи", "пятыи", "шестои",
		"седьмои", "восьмои", "девятыи", "десятыи", "одинадцатыи", "двенадцатыи",
		"тринадцатыи", "четырнадцатыи", "пятнадцатыи", "шестнадцатыи",
		"семнадцатыи", "восемнадцатыи", "девятнадцатыи", "двадцатыи",
		"двадцатьпервыи", "двадцатьвторои", "двадцатьтрети", "двадцатьчетвертыи",
		"двадцатьпятыи", "двадцатьшестои", "двадцатьседьмои", "двадцатьвосьмои",
		"двадцатьдевятыи", "тридцатыи",
	}
	femaleOrdinals = []string{
		"нулевая", "первая", "вторая", "третья", "четвертая", "пятая", "шестая",
		"седьмая", "восьмая", "девятая", "десятая", "одинадцатая", "двенадцатая",
		"тринадцатая", "четырнадцатая", "пятнадцатая", "шестнадцатая",
		"семнадцатая", "восемнадцатая", "девятнадцатая", "двадцатая",
		"двадцатьпервая", "двадцатьвторая", "двадцатьтретья", "двадцатьчетвертая",
		"двадцатьпятая", "двадцатьшестая", "двадцатьседьмая", "двадцатьвосьмая",
		"двадцатьдевятая", "тридцатая",
	}
	romanNumbers = []string{
		"", "i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x", "xi",
		"xii", "xiii", "xiv", "xv", "xvi", "xvii", "xviii", "xix", "xx", "xxi",
		"xxii", "xxiii", "xxiv", "xxv", "xxvi", "xxvii", "xxviii", "xxix", "xxx",
	}
)

// maxSpelledOrdinal is the largest value the ordinal expansion spells out;
// larger numbers pass through as literals.
const maxSpelledOrdinal = 30

// CompilePattern expands an authored pattern into the exhaustive sorted set of
// canonical answer strings it accepts. The grammar:
//
//   - tokens are whitespace-separated and concatenated without a separator;
//   - (abc) is one alternative per letter, (a|b) or (a b) one per option,
//     (x) makes the single letter optional;
//   - a leading * makes the whole token optional;
//   - 3и / 3я expands to the number, its Roman form and the spelled Russian
//     ordinal in the matching gender (values above 30 stay literal);
//   - " / " splits independent compound patterns;
//   - " = 12 13" appends obligatory combinations: each digit group names the
//     1-based token positions that must appear together, all other tokens
//     become optional for that compound pattern.
//
// Compilation is pure and deterministic; a grammar error returns
// ErrMalformedPattern and publishes nothing.
func CompilePattern(pattern string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrMalformedPattern)
	}
	if err := checkBrackets(pattern); err != nil {
		return nil, err
	}

	// Spaces inside bracket groups act as explicit option separators.
	pattern = bracketGroupRe.ReplaceAllStringFunc(pattern, func(group string) string {
		return strings.ReplaceAll(group, " ", "|")
	})

	compounds, err := splitCompounds(pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, compound := range compounds {
		units, err := resolveTokens(compound)
		if err != nil {
			return nil, err
		}
		for _, match := range product(units) {
			match = CollapseRepeats(match)
			if match == "" {
				continue
			}
			seen[match] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: pattern %q expands to nothing", ErrMalformedPattern, pattern)
	}

	matches := make([]string, 0, len(seen))
	for match := range seen {
		matches = append(matches, match)
	}
	sort.Strings(matches)
	return matches, nil
}

func checkBrackets(pattern string) error {
	depth := 0
	last := -1
	for i, r := range pattern {
		switch r {
		case '(':
			depth++
			last = i
			if depth > 1 {
				return fmt.Errorf("%w: nested brackets", ErrMalformedPattern)
			}
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced brackets", ErrMalformedPattern)
			}
			if i == last+1 {
				return fmt.Errorf("%w: empty bracket group", ErrMalformedPattern)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced brackets", ErrMalformedPattern)
	}
	return nil
}

// splitCompounds breaks a pattern into independently compiled compound
// patterns, either on " / " or along the obligatory-combination list after
// " = ".
func splitCompounds(pattern string) ([]string, error) {
	head, combos, hasCombos := strings.Cut(pattern, " = ")
	if !hasCombos {
		return strings.Split(pattern, " / "), nil
	}

	tokens := strings.Fields(head)
	var compounds []string
	for _, combo := range strings.Fields(combos) {
		required := make(map[int]bool)
		for _, digit := range combo {
			if digit < '1' || digit > '9' {
				return nil, fmt.Errorf("%w: combination %q is not a digit group", ErrMalformedPattern, combo)
			}
			pos := int(digit - '0')
			if pos > len(tokens) {
				return nil, fmt.Errorf("%w: combination %q names position %d of %d tokens",
					ErrMalformedPattern, combo, pos, len(tokens))
			}
			required[pos-1] = true
		}
		parts := make([]string, len(tokens))
		for n, token := range tokens {
			if required[n] || strings.HasPrefix(token, "*") {
				parts[n] = token
			} else {
				parts[n] = "*" + token
			}
		}
		compounds = append(compounds, strings.Join(parts, " "))
	}
	return compounds, nil
}

// resolveTokens turns each whitespace-separated token of one compound pattern
// into its list of string alternatives.
func resolveTokens(compound string) ([][]string, error) {
	tokens := strings.Fields(compound)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty compound pattern", ErrMalformedPattern)
	}
	units := make([][]string, 0, len(tokens))
	for _, token := range tokens {
		alternatives, err := resolveToken(token)
		if err != nil {
			return nil, err
		}
		units = append(units, alternatives)
	}
	return units, nil
}

func resolveToken(token string) ([]string, error) {
	if inner, ok := wholeBracketGroup(token); ok {
		return parseBracketGroup(inner)
	}
	if strings.HasPrefix(token, "*") {
		if inner, ok := wholeBracketGroup(token[1:]); ok {
			alternatives, err := parseBracketGroup(inner)
			if err != nil {
				return nil, err
			}
			return append(alternatives, ""), nil
		}
	}

	optional := false
	if strings.HasPrefix(token, "*") {
		token = token[1:]
		optional = true
	}

	var alternatives []string
	if ordinalRe.MatchString(token) {
		alternatives = expandOrdinal(token)
	} else {
		var err error
		alternatives, err = expandEmbeddedGroups(token)
		if err != nil {
			return nil, err
		}
	}
	if optional {
		alternatives = append(alternatives, "")
	}
	return alternatives, nil
}

// wholeBracketGroup reports whether the token is exactly one bracket group and
// returns its contents.
func wholeBracketGroup(token string) (string, bool) {
	if len(token) < 2 || !strings.HasPrefix(token, "(") || !strings.HasSuffix(token, ")") {
		return "", false
	}
	inner := token[1 : len(token)-1]
	if strings.ContainsAny(inner, "()") {
		return "", false
	}
	return inner, true
}

// parseBracketGroup resolves the contents of one (...) group: a single letter
// is optional, |-joined options each stand alone, anything else is one
// alternative per letter.
func parseBracketGroup(inner string) ([]string, error) {
	if inner == "" {
		return nil, fmt.Errorf("%w: empty bracket group", ErrMalformedPattern)
	}
	runes := []rune(inner)
	if len(runes) == 1 {
		return []string{inner, ""}, nil
	}
	if strings.Contains(inner, "|") {
		return strings.Split(inner, "|"), nil
	}
	alternatives := make([]string, len(runes))
	for i, r := range runes {
		alternatives[i] = string(r)
	}
	return alternatives, nil
}

// expandEmbeddedGroups resolves a token that may contain bracket groups glued
// to literal text, e.g. "со(а|о)бака", by taking the product of its pieces.
func expandEmbeddedGroups(token string) ([]string, error) {
	spaced := strings.ReplaceAll(token, "(", " (")
	spaced = strings.ReplaceAll(spaced, ")", ") ")
	units := make([][]string, 0, 4)
	for _, piece := range strings.Fields(spaced) {
		if inner, ok := wholeBracketGroup(piece); ok {
			alternatives, err := parseBracketGroup(inner)
			if err != nil {
				return nil, err
			}
			units = append(units, alternatives)
		} else {
			units = append(units, []string{piece})
		}
	}
	return product(units), nil
}

// expandOrdinal resolves a numeric token with a Russian ordinal suffix into
// the bare number, its Roman-numeral form and the spelled ordinal in the
// suffix gender.
func expandOrdinal(token string) []string {
	suffix := token[len(token)-len("и"):]
	num, _ := strconv.Atoi(token[:len(token)-len(suffix)])
	if num > maxSpelledOrdinal {
		return []string{token}
	}
	spelled := femaleOrdinals[num]
	if suffix == "и" {
		spelled = maleOrdinals[num]
	}
	return []string{strconv.Itoa(num), romanNumbers[num], spelled}
}

// product concatenates one alternative from every unit, iteratively, producing
// every surface string of a compound pattern.
func product(units [][]string) []string {
	results := []string{""}
	for _, alternatives := range units {
		next := make([]string, 0, len(results)*len(alternatives))
		for _, prefix := range results {
			for _, alt := range alternatives {
				next = append(next, prefix+alt)
			}
		}
		results = next
	}
	return results
}
