package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fmuoria/resume-parser/internal/models"
)

var (
	educationDatePattern = regexp.MustCompile(`(?:19[7-9]\d|2\d{3}) *-? *(?:(?:19[7-9]\d|2\d{3})|Present|present|Current|current|Ongoing|ongoing)?`)
	institutionPattern   = regexp.MustCompile(`COLLEGE|College|INSTITUTE|Institute|SCHOOL|School|UNIVERSITY|University`)
	asciiLetter          = regexp.MustCompile(`[a-zA-Z]`)
)

// institutionKeywords are the exact tokens that anchor an institution name
var institutionKeywords = map[string]struct{}{
	"COLLEGE": {}, "College": {},
	"INSTITUTE": {}, "Institute": {},
	"SCHOOL": {}, "School": {}, "School)": {}, "(School": {},
	"UNIVERSITY": {}, "University": {},
}

// genericSchools are qualifiers that do not name an institution on their own
var genericSchools = []string{"High School", "Senior Secondary School", "Secondary School", "Higher Secondary School", "School"}

// ExtractEducation pulls dates, institutions and degrees from the education block.
// The three lists are independent of each other.
func (p *Parser) ExtractEducation(lines []string) models.Education {
	edu := models.Education{
		Dates:   []string{},
		Degrees: []string{},
	}
	var institutions []string

	for _, line := range lines {
		for _, d := range educationDatePattern.FindAllString(line, -1) {
			if d = strings.TrimSpace(d); d != "" {
				edu.Dates = append(edu.Dates, d)
			}
		}

		if institutionPattern.MatchString(line) {
			if name := institutionName(line); name != "" {
				institutions = append(institutions, name)
			}
		}

		if course, ok := p.data.MatchCourse(line); ok {
			edu.Degrees = append(edu.Degrees, course)
		}
	}

	edu.Institutions = filterGenericSchools(institutions)
	return edu
}

// institutionName grows a name around the keyword token while neighbouring
// tokens are capitalised or the word "of"
func institutionName(line string) string {
	tokens := strings.Fields(line)
	for i, tok := range tokens {
		if before, _, found := strings.Cut(tok, ","); found {
			tokens[i] = before
		}
	}

	idx := -1
	for i, tok := range tokens {
		if _, ok := institutionKeywords[tok]; ok {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, tok := range tokens {
			if institutionPattern.MatchString(tok) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return ""
	}

	parts := []string{tokens[idx]}
	for b := idx - 1; b >= 0 && extendsName(tokens[b]); b-- {
		parts = append([]string{tokens[b]}, parts...)
	}
	for f := idx + 1; f < len(tokens) && extendsName(tokens[f]) && startsAlphaOrDot(tokens[f]); f++ {
		parts = append(parts, tokens[f])
	}
	return strings.Join(parts, " ")
}

func extendsName(tok string) bool {
	if tok == "of" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return tok != "" && unicode.IsUpper(r)
}

func startsAlphaOrDot(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '.' || isASCIILetter(c)
}

// filterGenericSchools drops names that are nothing but a generic qualifier.
// It builds a new slice instead of deleting while iterating.
func filterGenericSchools(names []string) []string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		generic := false
		for _, omit := range genericSchools {
			if strings.Contains(name, omit) && !asciiLetter.MatchString(strings.ReplaceAll(name, omit, "")) {
				generic = true
				break
			}
		}
		if !generic {
			kept = append(kept, name)
		}
	}
	return kept
}
