package parser

import "testing"

func TestMatchers(t *testing.T) {
	tests := []struct {
		line      string
		keyword   string
		substring bool
		token     bool
	}{
		{"TECHNICAL SKILLS", "SKILL", true, true},
		{"SKILLSET", "SKILL", true, false},
		{"Key Skills:", "Skill", true, true},
		{"Work Experience", "Work", true, true},
		{"Homework", "work", true, false},
		{"Networking", "Work", false, false},
		{"Education/Training", "Education", true, true},
		{"", "Skill", false, false},
		{"Skill", "", true, false},
	}

	for _, tt := range tests {
		if got := (SubstringMatcher{}).Contains(tt.line, tt.keyword); got != tt.substring {
			t.Errorf("SubstringMatcher.Contains(%q, %q) = %v, want %v", tt.line, tt.keyword, got, tt.substring)
		}
		if got := (TokenMatcher{}).Contains(tt.line, tt.keyword); got != tt.token {
			t.Errorf("TokenMatcher.Contains(%q, %q) = %v, want %v", tt.line, tt.keyword, got, tt.token)
		}
	}
}

func TestMatcherByName(t *testing.T) {
	if m, err := MatcherByName(""); err != nil || m != (SubstringMatcher{}) {
		t.Errorf("Expected substring default, got %T, %v", m, err)
	}
	if m, err := MatcherByName("Token"); err != nil || m != (TokenMatcher{}) {
		t.Errorf("Expected token matcher, got %T, %v", m, err)
	}
	if _, err := MatcherByName("fuzzy"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}
