package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// MinPhoneLength is the trimmed length a phone candidate must exceed
const MinPhoneLength = 11

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

// nameLabels mark lines that carry an explicit name field
var nameLabels = []string{"Name", "NAME"}

// ExtractEmails returns every email-like substring of text in document order.
// Repeated addresses are kept.
func ExtractEmails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// ExtractPhones returns phone-number candidates found line by line.
//
// A candidate is a run of digits, parentheses, dashes and whitespace,
// optionally led by '+', that is followed by a letter once trailing
// whitespace is skipped. Runs at the end of a line never qualify.
func ExtractPhones(text string) []string {
	phones := []string{}
	for _, line := range splitLines(text) {
		for _, run := range phoneRuns(line) {
			if c := strings.TrimSpace(run); len(c) > MinPhoneLength {
				phones = append(phones, c)
			}
		}
	}
	return phones
}

// phoneRuns scans one line left to right, returning non-overlapping runs
func phoneRuns(line string) []string {
	var runs []string
	n := len(line)

	for i := 0; i < n; {
		start := i
		body := i
		if line[i] == '+' {
			body = i + 1
		} else if !isPhoneByte(line[i]) {
			i++
			continue
		}

		end := body
		for end < n && isPhoneByte(line[end]) {
			end++
		}
		if end == body {
			i++
			continue
		}

		if end < n && isASCIILetter(line[end]) {
			last := end
			for last > body && isSpaceByte(line[last-1]) {
				last--
			}
			if last == body {
				last = body + 1
			}
			runs = append(runs, line[start:last])
			i = last
			continue
		}
		i = end
	}
	return runs
}

func isPhoneByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '(' || b == ')' || isSpaceByte(b)
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ExtractNames builds the candidate name set from the leading name block.
// Lines labelled Name/NAME contribute their letters, and lines without
// digits contribute themselves when any word is a known first name.
func (p *Parser) ExtractNames(lines []string) []string {
	set := make(map[string]struct{})

	for _, line := range lines {
		if containsAny(p.matcher, line, nameLabels) {
			stripped := line
			for _, label := range nameLabels {
				stripped = strings.ReplaceAll(stripped, label, "")
			}
			if name := lettersOnly(stripped); name != "" {
				set[name] = struct{}{}
			}
		}

		if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			continue
		}
		for _, word := range strings.Fields(line) {
			if p.data.IsFirstName(trimPunct(word)) {
				set[strings.TrimSpace(line)] = struct{}{}
				break
			}
		}
	}

	return sortedKeys(set)
}

// lettersOnly keeps letters and spaces and collapses whitespace
func lettersOnly(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}

// trimPunct strips leading and trailing punctuation from a word
func trimPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
