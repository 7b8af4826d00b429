// Package reconcile compares a freshly parsed resume with a stored one and
// decides whether the new record is a duplicate, an update, a conflict or a
// different person.
package reconcile

import (
	"sort"
	"strings"

	"github.com/fmuoria/resume-parser/internal/models"
)

// Status is the profile-level outcome
type Status int

const (
	StatusNoAction Status = iota // nothing new, drop the fresh record
	StatusMerge                  // same person with additional data
	StatusConflict               // same person with contradicting data
	StatusNew                    // different person
)

func (s Status) String() string {
	switch s {
	case StatusNoAction:
		return "no action"
	case StatusMerge:
		return "merge"
	case StatusConflict:
		return "conflict"
	case StatusNew:
		return "new"
	}
	return "unknown"
}

// Outcome is the per-field comparison result
type Outcome int

const (
	OutcomeNone     Outcome = iota // fresh value empty
	OutcomeMatch                   // values agree
	OutcomeMerge                   // fresh value adds data
	OutcomeConflict                // values disagree
)

// Field names reported in ReconcileResult
const (
	FieldName    = "name"
	FieldEmails  = "emails"
	FieldPhones  = "phones"
	FieldSkills  = "skills"
	FieldSchools = "schools"
	FieldDegrees = "degrees"
)

// CompareValue applies the field rule to single values
func CompareValue(stored, fresh string) Outcome {
	fresh, stored = strings.TrimSpace(fresh), strings.TrimSpace(stored)
	switch {
	case fresh == "":
		return OutcomeNone
	case stored == "":
		return OutcomeMerge
	case strings.EqualFold(stored, fresh):
		return OutcomeMatch
	}
	return OutcomeConflict
}

// CompareContact compares identifying sets such as emails and phones.
// Overlapping sets agree and add any new members; disjoint sets disagree.
func CompareContact(stored, fresh []string) Outcome {
	switch {
	case len(fresh) == 0:
		return OutcomeNone
	case len(stored) == 0:
		return OutcomeMerge
	}
	s := fold(stored)
	shared, added := 0, 0
	for v := range fold(fresh) {
		if s[v] {
			shared++
		} else {
			added++
		}
	}
	switch {
	case shared == 0:
		return OutcomeConflict
	case added > 0:
		return OutcomeMerge
	}
	return OutcomeMatch
}

// CompareAdditive compares cumulative sets such as skills, where new
// members extend the profile and never contradict it
func CompareAdditive(stored, fresh []string) Outcome {
	if len(fresh) == 0 {
		return OutcomeNone
	}
	s := fold(stored)
	for v := range fold(fresh) {
		if !s[v] {
			return OutcomeMerge
		}
	}
	return OutcomeMatch
}

// Compare reconciles fresh against stored and returns the profile status
// with the fields that merge or conflict
func Compare(stored, fresh models.ParsedResume) models.ReconcileResult {
	fields := []struct {
		name    string
		outcome Outcome
	}{
		{FieldName, CompareValue(identityName(stored), identityName(fresh))},
		{FieldEmails, CompareContact(stored.Record.Emails, fresh.Record.Emails)},
		{FieldPhones, CompareContact(digitsOnly(stored.Record.Phones), digitsOnly(fresh.Record.Phones))},
		{FieldSkills, CompareAdditive(stored.Record.Skills, fresh.Record.Skills)},
		{FieldSchools, CompareAdditive(stored.Record.Education.Institutions, fresh.Record.Education.Institutions)},
		{FieldDegrees, CompareAdditive(stored.Record.Education.Degrees, fresh.Record.Education.Degrees)},
	}

	result := models.ReconcileResult{
		MatchedID:      stored.ID,
		ConflictFields: []string{},
		MergeFields:    []string{},
	}
	for _, f := range fields {
		switch f.outcome {
		case OutcomeConflict:
			result.ConflictFields = append(result.ConflictFields, f.name)
		case OutcomeMerge:
			result.MergeFields = append(result.MergeFields, f.name)
		}
	}

	// same person when an email is shared or the names agree
	identity := fields[0].outcome == OutcomeMatch || overlaps(stored.Record.Emails, fresh.Record.Emails)

	var status Status
	switch {
	case !identity:
		status = StatusNew
		result.MatchedID = ""
	case len(result.ConflictFields) > 0:
		status = StatusConflict
	case len(result.MergeFields) > 0:
		status = StatusMerge
	default:
		status = StatusNoAction
	}
	result.Status = int(status)
	result.StatusText = status.String()
	return result
}

// New reports a record with no stored counterpart
func New() models.ReconcileResult {
	return models.ReconcileResult{
		Status:         int(StatusNew),
		StatusText:     StatusNew.String(),
		ConflictFields: []string{},
		MergeFields:    []string{},
	}
}

// Merge folds the data fresh adds into stored. Stored values win for scalar
// fields; sets are unioned and experience entries are added when missing.
func Merge(stored, fresh models.ParsedResume) models.ParsedResume {
	out := stored
	rec := stored.Record
	add := fresh.Record

	rec.Name = union(rec.Name, add.Name, true)
	rec.Emails = union(rec.Emails, add.Emails, false)
	rec.Phones = union(rec.Phones, add.Phones, false)
	rec.Skills = union(rec.Skills, add.Skills, true)
	rec.Education.Dates = union(rec.Education.Dates, add.Education.Dates, false)
	rec.Education.Institutions = union(rec.Education.Institutions, add.Education.Institutions, false)
	rec.Education.Degrees = union(rec.Education.Degrees, add.Education.Degrees, false)

	exp := make(map[string]string, len(rec.Experience)+len(add.Experience))
	for k, v := range rec.Experience {
		exp[k] = v
	}
	for k, v := range add.Experience {
		if _, ok := exp[k]; !ok {
			exp[k] = v
		}
	}
	rec.Experience = exp

	out.Record = rec
	if out.ResolvedName == "" {
		out.ResolvedName = fresh.ResolvedName
	}
	return out
}

// identityName is the single name used for comparison
func identityName(p models.ParsedResume) string {
	if p.ResolvedName != "" {
		return p.ResolvedName
	}
	if len(p.Record.Name) == 1 {
		return p.Record.Name[0]
	}
	return ""
}

func overlaps(a, b []string) bool {
	s := fold(a)
	for v := range fold(b) {
		if s[v] {
			return true
		}
	}
	return false
}

func fold(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			m[v] = true
		}
	}
	return m
}

func digitsOnly(phones []string) []string {
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		var sb strings.Builder
		for _, r := range p {
			if r >= '0' && r <= '9' {
				sb.WriteRune(r)
			}
		}
		out = append(out, sb.String())
	}
	return out
}

// union appends members of add missing from base, compared case-insensitively
func union(base, add []string, sorted bool) []string {
	seen := fold(base)
	out := append([]string{}, base...)
	for _, v := range add {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}
