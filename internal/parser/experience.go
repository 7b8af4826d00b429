package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExperienceMode selects how many work-experience entries are collected
type ExperienceMode string

const (
	// ExperienceAll collects an entry for every dated line
	ExperienceAll ExperienceMode = "all"
	// ExperienceFirst stops after the first dated line
	ExperienceFirst ExperienceMode = "first"
)

// ParseExperienceMode validates a configured mode. Empty means ExperienceAll.
func ParseExperienceMode(s string) (ExperienceMode, error) {
	switch ExperienceMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExperienceAll:
		return ExperienceAll, nil
	case ExperienceFirst:
		return ExperienceFirst, nil
	default:
		return "", fmt.Errorf("unknown experience mode: %q", s)
	}
}

const (
	monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|` +
		`Sept|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec`
	yearPattern  = `(?:19[7-9]\d|2\d{3})\b`
	monthPattern = `(?:\b(?:` + monthNames + `)\.?\s*[,']?\s*)`
)

var workDatePattern = regexp.MustCompile(`(?i)` + monthPattern + `?` + yearPattern +
	`(?:\s*(?:-|–|—|to)\s*(?:` + monthPattern + `?` + yearPattern + `|present|current|ongoing|till date|now))?`)

// experienceHeaders mark the section title lines inside the block
var experienceHeaders = []string{"WORK", "Work", "EXPERIENCE", "Experience"}

// ExtractExperience maps each date range found in the work block to the line
// that most likely names the role or employer.
//
// Candidates are the nearest line above, the nearest line below and the dated
// line with the date removed, scored by their share of capitalised words.
// Ties go to the same line, then below, then above. An above line that is a
// section title is never a candidate.
func (p *Parser) ExtractExperience(lines []string) map[string]string {
	out := make(map[string]string)

	var rows []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			rows = append(rows, l)
		}
	}

	for i, row := range rows {
		if p.isExperienceHeader(row) {
			continue
		}
		loc := workDatePattern.FindStringIndex(row)
		if loc == nil {
			continue
		}
		date := strings.TrimSpace(row[loc[0]:loc[1]])
		if date == "" {
			continue
		}
		if _, seen := out[date]; seen {
			continue
		}

		out[date] = p.describe(rows, i, row[loc[0]:loc[1]])

		if p.expMode == ExperienceFirst {
			break
		}
	}

	return out
}

type candidate struct {
	text  string
	ratio float64
}

// describe picks the description for the dated row at index i
func (p *Parser) describe(rows []string, i int, rawDate string) string {
	var cands []candidate

	same := strings.Join(strings.Fields(strings.ReplaceAll(rows[i], rawDate, " ")), " ")
	if asciiLetter.MatchString(same) {
		cands = append(cands, candidate{same, capitalRatio(same)})
	}
	if i+1 < len(rows) {
		cands = append(cands, candidate{rows[i+1], capitalRatio(rows[i+1])})
	}

	aboveIsHeader := false
	if i > 0 {
		aboveIsHeader = p.isExperienceHeader(rows[i-1])
		if !aboveIsHeader {
			cands = append(cands, candidate{rows[i-1], capitalRatio(rows[i-1])})
		}
	}

	if len(cands) == 0 {
		return ""
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.ratio > best.ratio {
			best = c
		}
	}
	return best.text
}

func (p *Parser) isExperienceHeader(line string) bool {
	return containsAny(p.matcher, line, experienceHeaders)
}

// capitalRatio is the share of words starting with an upper-case letter
func capitalRatio(s string) float64 {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0
	}
	caps := 0
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			caps++
		}
	}
	return float64(caps) / float64(len(words))
}
