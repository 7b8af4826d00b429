package parser

import (
	"strings"
	"unicode"
)

// ExtractSkills matches skills-block tokens against the taxonomy.
// A key match adds the key. A synonym match adds the synonym and every key listing it.
func (p *Parser) ExtractSkills(lines []string) []string {
	set := make(map[string]struct{})

	text := strings.ReplaceAll(strings.Join(lines, "\n"), ",", " ")
	for _, word := range strings.Fields(text) {
		tok := normalizeSkillToken(word)
		if tok == "" {
			continue
		}
		if p.data.IsSkill(tok) {
			set[tok] = struct{}{}
			continue
		}
		if keys := p.data.SynonymKeys(tok); len(keys) > 0 {
			set[tok] = struct{}{}
			for _, k := range keys {
				set[k] = struct{}{}
			}
		}
	}

	return sortedKeys(set)
}

// normalizeSkillToken lowercases a token and trims edge punctuation,
// keeping '#' and '+' so "C#" and "C++" survive
func normalizeSkillToken(word string) string {
	tok := strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '+'
	})
	return strings.ToLower(tok)
}
