package parser

import (
	"reflect"
	"testing"
)

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"two addresses", "Contact: a@b.com or c@d.org", []string{"a@b.com", "c@d.org"}},
		{"duplicates kept", "a@b.com\nemail a@b.com", []string{"a@b.com", "a@b.com"}},
		{"dots and dashes", "jane.doe-1@mail.example.co.in", []string{"jane.doe-1@mail.example.co.in"}},
		{"none", "no contact details", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEmails(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEmails(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractPhones(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"international followed by label", "+1 (555) 123-4567 Email: x@y.com", []string{"+1 (555) 123-4567"}},
		{"dashed followed by label", "+91-98765-43210 Email", []string{"+91-98765-43210"}},
		{"end of line never matches", "Call 98765432101234", []string{}},
		{"non-letter terminator", "Mobile: 9876543210123 | jane", []string{}},
		{"too short", "Mobile: 9876543210 jane@x.com", []string{}},
		{"per line", "Phone 0044 20 7946 0958 home\n(022) 2345-6789 office", []string{"0044 20 7946 0958", "(022) 2345-6789"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPhones(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractPhones(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractNames(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "first name match",
			lines: []string{"John Smith", "Senior Developer"},
			want:  []string{"John Smith"},
		},
		{
			name:  "name label stripped",
			lines: []string{"Name: Priya Sharma"},
			want:  []string{"Name: Priya Sharma", "Priya Sharma"},
		},
		{
			name:  "label without known first name",
			lines: []string{"NAME - Zed Q. Public"},
			want:  []string{"Zed Q Public"},
		},
		{
			name:  "lines with digits skipped",
			lines: []string{"John Street 221B", "jane"},
			want:  []string{"jane"},
		},
		{
			name:  "case-insensitive and punctuation trimmed",
			lines: []string{"RAHUL, KUMAR"},
			want:  []string{"RAHUL, KUMAR"},
		},
		{
			name:  "multiple candidates sorted",
			lines: []string{"Priya Nair", "Jane Roe", "Priya Nair"},
			want:  []string{"Jane Roe", "Priya Nair"},
		},
		{
			name:  "no candidates",
			lines: []string{"Curriculum Vitae"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ExtractNames(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNames(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestExtractNames_TokenMatcher(t *testing.T) {
	p := newTestParser(WithMatcher(TokenMatcher{}))

	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "label as a word",
			lines: []string{"Name: Zed Public"},
			want:  []string{"Zed Public"},
		},
		{
			name:  "upper-case label",
			lines: []string{"NAME - Zed Q. Public"},
			want:  []string{"Zed Q Public"},
		},
		{
			name:  "label inside a longer word",
			lines: []string{"FirstName: Zed Public"},
			want:  []string{},
		},
		{
			name:  "first-name rule unchanged",
			lines: []string{"Name: Priya Sharma"},
			want:  []string{"Name: Priya Sharma", "Priya Sharma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ExtractNames(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNames(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}

	// substring matching still takes the label out of a longer word
	got := newTestParser().ExtractNames([]string{"FirstName: Zed Public"})
	if want := []string{"First Zed Public"}; !reflect.DeepEqual(got, want) {
		t.Errorf("substring ExtractNames = %q, want %q", got, want)
	}
}
