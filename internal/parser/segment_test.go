package parser

import (
	"reflect"
	"testing"
)

func TestSegment(t *testing.T) {
	sections := NewSegmenter(SubstringMatcher{}).Segment(sampleResume)

	tests := []struct {
		name  string
		block SectionBlock
		want  []string
	}{
		{
			name:  "name block stops at objective",
			block: sections.Name,
			want:  []string{"Jane Doe", "jane.doe@example.com", "+1 (555) 123-4567 Mobile"},
		},
		{
			name:  "education keeps opening line and drops closing line",
			block: sections.Education,
			want:  []string{"EDUCATION", "XYZ University 2015-2019", "Bachelor of Science in Computer Science"},
		},
		{
			name:  "closing line opens the next section",
			block: sections.Experience,
			want:  []string{"WORK EXPERIENCE", "Software Engineer at Acme Corp", "Jan 2019 - Present", "Developed internal tools in go"},
		},
		{
			name:  "skills closed by interests",
			block: sections.Skills,
			want:  []string{"TECHNICAL SKILLS", "Python, Golang, MySQL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.block.Lines, tt.want) {
				t.Errorf("got %q, want %q", tt.block.Lines, tt.want)
			}
		})
	}
}

// TestSegmentNameBlock checks that only skill and objective keywords end the name block
func TestSegmentNameBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "headline mentioning experience",
			text: "Rahul Verma, Experienced Backend Engineer\nrahul@x.com\nSkills\nGo",
			want: []string{"Rahul Verma, Experienced Backend Engineer", "rahul@x.com"},
		},
		{
			name: "education section before skills",
			text: "Jane Doe\nEducation\nXYZ University\nSKILLS\nGo",
			want: []string{"Jane Doe", "Education", "XYZ University"},
		},
		{
			name: "objective ends the block",
			text: "Jane Doe\nObjective: Work on compilers\nEducation",
			want: []string{"Jane Doe"},
		},
		{
			name: "keyword on the first line",
			text: "SKILLS\nGo",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSegmenter(nil).Segment(tt.text).Name.Lines
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentIdempotent(t *testing.T) {
	s := NewSegmenter(nil)
	first := s.Segment(sampleResume)
	second := s.Segment(sampleResume)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical blocks, got %+v and %+v", first, second)
	}
}

// TestSegmentFirstExtentOnly checks that a repeated section keyword does not reopen a captured block
func TestSegmentFirstExtentOnly(t *testing.T) {
	text := "EDUCATION\nABC College\nPROJECTS\nParser\nEducation (continued)\nDEF University"
	sections := NewSegmenter(nil).Segment(text)

	want := []string{"EDUCATION", "ABC College"}
	if !reflect.DeepEqual(sections.Education.Lines, want) {
		t.Errorf("Education = %q, want %q", sections.Education.Lines, want)
	}
}

func TestSegmentOpeningPriority(t *testing.T) {
	text := "Education and Skills\nXYZ University\nHOBBIES\nChess"
	sections := NewSegmenter(nil).Segment(text)

	if want := []string{"Education and Skills", "XYZ University"}; !reflect.DeepEqual(sections.Education.Lines, want) {
		t.Errorf("Education = %q, want %q", sections.Education.Lines, want)
	}
	if len(sections.Skills.Lines) != 0 {
		t.Errorf("Expected no skills block, got %q", sections.Skills.Lines)
	}
}

func TestSegmentOtherSectionOpenerCloses(t *testing.T) {
	text := "SKILLS\nGo, Python\nEDUCATION\nXYZ University"
	sections := NewSegmenter(nil).Segment(text)

	if want := []string{"SKILLS", "Go, Python"}; !reflect.DeepEqual(sections.Skills.Lines, want) {
		t.Errorf("Skills = %q, want %q", sections.Skills.Lines, want)
	}
	if want := []string{"EDUCATION", "XYZ University"}; !reflect.DeepEqual(sections.Education.Lines, want) {
		t.Errorf("Education = %q, want %q", sections.Education.Lines, want)
	}
}

func TestSegmentMatcherStrategy(t *testing.T) {
	text := "SKILLSET: Go\nPython"

	substring := NewSegmenter(SubstringMatcher{}).Segment(text)
	if len(substring.Skills.Lines) != 2 {
		t.Errorf("Expected substring matcher to open skills on SKILLSET, got %q", substring.Skills.Lines)
	}

	token := NewSegmenter(TokenMatcher{}).Segment(text)
	if len(token.Skills.Lines) != 0 {
		t.Errorf("Expected token matcher to ignore SKILLSET, got %q", token.Skills.Lines)
	}
}

func TestSegmentEmptySections(t *testing.T) {
	sections := NewSegmenter(nil).Segment("")
	for _, s := range []Section{SectionName, SectionEducation, SectionSkills, SectionExperience} {
		b := sections.Block(s)
		if b.Section != s {
			t.Errorf("Expected section %q, got %q", s, b.Section)
		}
		if b.Lines == nil || len(b.Lines) != 0 {
			t.Errorf("Expected empty non-nil block for %q, got %#v", s, b.Lines)
		}
	}
}

func TestSectionBlockText(t *testing.T) {
	b := SectionBlock{Section: SectionSkills, Lines: []string{"SKILLS", "Go"}}
	if got := b.Text(); got != "SKILLS\nGo" {
		t.Errorf("Text() = %q", got)
	}
}
