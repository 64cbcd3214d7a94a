package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type termRule struct {
	re *regexp.Regexp
	to string
}

func compileTerms(subs []Substitution) []termRule {
	rules := make([]termRule, 0, len(subs))
	for _, sub := range subs {
		if strings.TrimSpace(sub.From) == "" {
			continue
		}
		rules = append(rules, termRule{
			re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sub.From)),
			to: sub.To,
		})
	}
	return rules
}

func applyTerms(text string, rules []termRule) string {
	for _, r := range rules {
		text = replaceWords(text, r)
	}
	return text
}

// replaceWords swaps matches that stand as whole words. Neighbours are judged by Unicode
// class, so "épatient" and "patient2" are not words of their own.
func replaceWords(text string, r termRule) string {
	locs := r.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if !standsAlone(text, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(matchCase(text[loc[0]:loc[1]], r.to))
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func standsAlone(text string, start, end int) bool {
	if start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		if next, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Substitute replaces whole-word, case-insensitive occurrences of each term. Partial-word matches
// ("inpatient") are left alone and the rest of the text is untouched.
func Substitute(text string, subs []Substitution) string {
	return applyTerms(text, compileTerms(subs))
}

// matchCase carries the matched word's capitalisation onto the replacement.
func matchCase(match, repl string) string {
	if repl == "" {
		return repl
	}
	if utf8.RuneCountInString(match) > 1 && strings.ToUpper(match) == match && strings.ToLower(match) != match {
		return strings.ToUpper(repl)
	}
	first, _ := utf8.DecodeRuneInString(match)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(repl)
		return string(unicode.ToUpper(r)) + repl[size:]
	}
	return repl
}
