package parser

import "strings"

// Section names a semantic resume block
type Section string

const (
	SectionName       Section = "name"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
	SectionExperience Section = "work_experience"
)

// SectionBlock is the ordered run of lines assigned to one section
type SectionBlock struct {
	Section Section
	Lines   []string
}

// Text joins the block lines with newlines
func (b SectionBlock) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Sections holds every block produced by one segmentation pass
type Sections struct {
	Name       SectionBlock
	Education  SectionBlock
	Skills     SectionBlock
	Experience SectionBlock
}

// Block returns the block for section
func (s Sections) Block(section Section) SectionBlock {
	switch section {
	case SectionName:
		return s.Name
	case SectionEducation:
		return s.Education
	case SectionSkills:
		return s.Skills
	case SectionExperience:
		return s.Experience
	}
	return SectionBlock{Section: section}
}

type sectionRule struct {
	section Section
	open    []string
	close   []string
}

// rules are listed in opening priority order
var rules = []sectionRule{
	{
		section: SectionEducation,
		open:    []string{"EDUCATION", "Education", "ACADEMIC", "Academic"},
		close: []string{
			"SKILL", "Skill", "PROJECT", "Project", "WORK", "Work", "EXPERIENCE", "Experience",
			"PROFILE", "Profile", "INTEREST", "Interest", "HOBBIES", "Hobbies", "HOBBY", "Hobby",
			"ACTIVITIES", "Activities", "ACTIVITY", "Activity",
		},
	},
	{
		section: SectionSkills,
		open:    []string{"SKILL", "Skill", "EXPERTISE", "Expertise"},
		close:   []string{"INTEREST", "Interest", "PROJECT", "Project", "ACCOMPLISHMENT", "Accomplishment"},
	},
	{
		section: SectionExperience,
		open:    []string{"WORK", "Work", "EXPERIENCE", "Experience"},
		close: []string{
			"SKILL", "Skill", "PROJECT", "Project", "EDUCATION", "Education", "PROFILE", "Profile",
			"INTEREST", "Interest", "HOBBIES", "Hobbies", "ACTIVITIES", "Activities", "ACTIVITY", "Activity",
		},
	},
}

// nameStop ends the leading name block. Other section openers do not, so a
// headline such as "Experienced Engineer" stays in the block.
var nameStop = []string{"SKILL", "Skill", "OBJECTIVE", "Objective"}

// Segmenter splits plain text into section blocks
type Segmenter struct {
	matcher Matcher
}

// NewSegmenter creates a segmenter using m for keyword tests
func NewSegmenter(m Matcher) *Segmenter {
	if m == nil {
		m = SubstringMatcher{}
	}
	return &Segmenter{matcher: m}
}

// Segment scans text once, top to bottom, with at most one section open.
// Opening lines are kept, closing lines are dropped and may open the next
// section. Each section is captured at most once.
func (s *Segmenter) Segment(text string) Sections {
	blocks := make([][]string, len(rules))
	captured := make([]bool, len(rules))
	current := -1

	var name []string
	nameOpen := true

	for _, line := range splitLines(text) {
		if nameOpen {
			if containsAny(s.matcher, line, nameStop) {
				nameOpen = false
			} else {
				name = append(name, line)
			}
		}

		if current >= 0 {
			if s.closes(current, line) {
				current = -1
			} else {
				blocks[current] = append(blocks[current], line)
				continue
			}
		}

		for i, r := range rules {
			if !captured[i] && containsAny(s.matcher, line, r.open) {
				current = i
				captured[i] = true
				blocks[i] = append(blocks[i], line)
				break
			}
		}
	}

	return Sections{
		Name:       SectionBlock{Section: SectionName, Lines: nonNil(name)},
		Education:  SectionBlock{Section: SectionEducation, Lines: nonNil(blocks[0])},
		Skills:     SectionBlock{Section: SectionSkills, Lines: nonNil(blocks[1])},
		Experience: SectionBlock{Section: SectionExperience, Lines: nonNil(blocks[2])},
	}
}

// closes reports whether line ends the open section idx
func (s *Segmenter) closes(idx int, line string) bool {
	if containsAny(s.matcher, line, rules[idx].close) {
		return true
	}
	for i, r := range rules {
		if i != idx && containsAny(s.matcher, line, r.open) {
			return true
		}
	}
	return false
}

// splitLines normalises line endings and splits on newlines
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
