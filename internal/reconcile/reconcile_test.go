package reconcile

import (
	"reflect"
	"testing"

	"github.com/fmuoria/resume-parser/internal/models"
)

func TestCompareValue(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		fresh  string
		want   Outcome
	}{
		{name: "fresh empty", stored: "Jane Doe", fresh: "", want: OutcomeNone},
		{name: "both empty", want: OutcomeNone},
		{name: "stored empty", fresh: "Jane Doe", want: OutcomeMerge},
		{name: "equal ignoring case", stored: "Jane Doe", fresh: "JANE DOE", want: OutcomeMatch},
		{name: "different", stored: "Jane Doe", fresh: "John Roe", want: OutcomeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValue(tt.stored, tt.fresh); got != tt.want {
				t.Errorf("CompareValue(%q, %q) = %d, want %d", tt.stored, tt.fresh, got, tt.want)
			}
		})
	}
}

func TestCompareContact(t *testing.T) {
	tests := []struct {
		name   string
		stored []string
		fresh  []string
		want   Outcome
	}{
		{name: "fresh empty", stored: []string{"a@x.com"}, want: OutcomeNone},
		{name: "stored empty", fresh: []string{"a@x.com"}, want: OutcomeMerge},
		{name: "same set", stored: []string{"a@x.com"}, fresh: []string{"A@X.com"}, want: OutcomeMatch},
		{name: "subset", stored: []string{"a@x.com", "b@x.com"}, fresh: []string{"b@x.com"}, want: OutcomeMatch},
		{name: "overlap with new member", stored: []string{"a@x.com"}, fresh: []string{"a@x.com", "c@x.com"}, want: OutcomeMerge},
		{name: "disjoint", stored: []string{"a@x.com"}, fresh: []string{"z@y.com"}, want: OutcomeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareContact(tt.stored, tt.fresh); got != tt.want {
				t.Errorf("CompareContact() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareAdditive(t *testing.T) {
	tests := []struct {
		name   string
		stored []string
		fresh  []string
		want   Outcome
	}{
		{name: "fresh empty", stored: []string{"go"}, want: OutcomeNone},
		{name: "stored empty", fresh: []string{"go"}, want: OutcomeMerge},
		{name: "contained", stored: []string{"go", "sql"}, fresh: []string{"SQL"}, want: OutcomeMatch},
		{name: "disjoint adds", stored: []string{"go"}, fresh: []string{"python"}, want: OutcomeMerge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareAdditive(tt.stored, tt.fresh); got != tt.want {
				t.Errorf("CompareAdditive() = %d, want %d", got, tt.want)
			}
		})
	}
}

func resume(id, name string, emails, phones, skills []string) models.ParsedResume {
	rec := models.NewExtractedRecord()
	if name != "" {
		rec.Name = []string{name}
	}
	rec.Emails = append(rec.Emails, emails...)
	rec.Phones = append(rec.Phones, phones...)
	rec.Skills = append(rec.Skills, skills...)
	return models.ParsedResume{ID: id, Record: rec}
}

func TestCompare(t *testing.T) {
	stored := resume("r1", "Jane Doe", []string{"jane@example.com"}, []string{"+91 98765 43210"}, []string{"go", "sql"})

	tests := []struct {
		name         string
		fresh        models.ParsedResume
		wantStatus   Status
		wantMatched  string
		wantConflict []string
		wantMerge    []string
	}{
		{
			name:         "identical resume",
			fresh:        resume("", "Jane Doe", []string{"jane@example.com"}, []string{"+919876543210"}, []string{"go"}),
			wantStatus:   StatusNoAction,
			wantMatched:  "r1",
			wantConflict: []string{},
			wantMerge:    []string{},
		},
		{
			name:         "same email with new skills",
			fresh:        resume("", "", []string{"JANE@example.com"}, nil, []string{"go", "python"}),
			wantStatus:   StatusMerge,
			wantMatched:  "r1",
			wantConflict: []string{},
			wantMerge:    []string{FieldSkills},
		},
		{
			name:         "same email different phone",
			fresh:        resume("", "Jane Doe", []string{"jane@example.com"}, []string{"+1 555 000 1111"}, nil),
			wantStatus:   StatusConflict,
			wantMatched:  "r1",
			wantConflict: []string{FieldPhones},
			wantMerge:    []string{},
		},
		{
			name:         "same name different email",
			fresh:        resume("", "jane doe", []string{"jd@other.org"}, nil, nil),
			wantStatus:   StatusConflict,
			wantMatched:  "r1",
			wantConflict: []string{FieldEmails},
			wantMerge:    []string{},
		},
		{
			name:         "different person",
			fresh:        resume("", "John Roe", []string{"john@example.com"}, nil, []string{"java"}),
			wantStatus:   StatusNew,
			wantMatched:  "",
			wantConflict: []string{FieldName, FieldEmails},
			wantMerge:    []string{FieldSkills},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(stored, tt.fresh)
			if Status(got.Status) != tt.wantStatus {
				t.Errorf("Status = %v, want %v", Status(got.Status), tt.wantStatus)
			}
			if got.StatusText != tt.wantStatus.String() {
				t.Errorf("StatusText = %q, want %q", got.StatusText, tt.wantStatus.String())
			}
			if got.MatchedID != tt.wantMatched {
				t.Errorf("MatchedID = %q, want %q", got.MatchedID, tt.wantMatched)
			}
			if !reflect.DeepEqual(got.ConflictFields, tt.wantConflict) {
				t.Errorf("ConflictFields = %v, want %v", got.ConflictFields, tt.wantConflict)
			}
			if !reflect.DeepEqual(got.MergeFields, tt.wantMerge) {
				t.Errorf("MergeFields = %v, want %v", got.MergeFields, tt.wantMerge)
			}
		})
	}
}

func TestStatusValues(t *testing.T) {
	if StatusNoAction != 0 || StatusMerge != 1 || StatusConflict != 2 || StatusNew != 3 {
		t.Fatal("status codes changed")
	}
	if New().Status != 3 || New().StatusText != "new" {
		t.Errorf("New() = %+v", New())
	}
}

func TestMerge(t *testing.T) {
	stored := resume("r1", "Jane Doe", []string{"jane@example.com"}, nil, []string{"go", "sql"})
	stored.Record.Experience["2019 - 2021"] = "Acme Corp"

	fresh := resume("", "Jane Doe", []string{"JANE@example.com", "jd@work.com"}, []string{"+91 98765 43210"}, []string{"python", "go"})
	fresh.Record.Experience["2019 - 2021"] = "Different description"
	fresh.Record.Experience["2021 - Present"] = "Globex"
	fresh.ResolvedName = "Jane Doe"

	got := Merge(stored, fresh)

	if got.ID != "r1" {
		t.Errorf("ID = %q, want r1", got.ID)
	}
	if want := []string{"jane@example.com", "jd@work.com"}; !reflect.DeepEqual(got.Record.Emails, want) {
		t.Errorf("Emails = %v, want %v", got.Record.Emails, want)
	}
	if want := []string{"go", "python", "sql"}; !reflect.DeepEqual(got.Record.Skills, want) {
		t.Errorf("Skills = %v, want %v", got.Record.Skills, want)
	}
	if want := []string{"+91 98765 43210"}; !reflect.DeepEqual(got.Record.Phones, want) {
		t.Errorf("Phones = %v, want %v", got.Record.Phones, want)
	}
	if got.Record.Experience["2019 - 2021"] != "Acme Corp" {
		t.Errorf("stored experience overwritten: %q", got.Record.Experience["2019 - 2021"])
	}
	if got.Record.Experience["2021 - Present"] != "Globex" {
		t.Error("new experience entry not added")
	}
	if got.ResolvedName != "Jane Doe" {
		t.Errorf("ResolvedName = %q", got.ResolvedName)
	}
	if len(stored.Record.Skills) != 2 {
		t.Error("Merge modified the stored record")
	}
}
