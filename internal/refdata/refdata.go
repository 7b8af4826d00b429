// Package refdata loads the static reference datasets used by the parser:
// the degree/course corpus, gendered first-name lists and the skill taxonomy.
//
// A Dataset is built once during start-up and never mutated afterwards, so a
// single value can be shared by any number of concurrent parses.
package refdata

import (
	"bufio"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// File names looked up inside a reference data directory.
const (
	CoursesFile     = "courses_corpus.txt"
	MaleNamesFile   = "male_names.txt"
	FemaleNamesFile = "female_names.txt"
	SkillsFile      = "skills.json"
)

//go:embed data/*
var embedded embed.FS

// Dataset is an immutable view over the reference data
type Dataset struct {
	courses  []string
	male     map[string]struct{}
	female   map[string]struct{}
	skills   map[string]struct{}
	synonyms map[string][]string // synonym -> canonical keys
}

// Stats reports the size of each loaded dataset
type Stats struct {
	Courses     int `json:"courses"`
	MaleNames   int `json:"male_names"`
	FemaleNames int `json:"female_names"`
	Skills      int `json:"skills"`
	Synonyms    int `json:"synonyms"`
}

// LoadDefault loads the datasets bundled with the binary
func LoadDefault() (*Dataset, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded reference data: %w", err)
	}
	return LoadFS(sub)
}

// Load reads the datasets from a directory on disk
func Load(dir string) (*Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reference data path is not a directory: %s", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadOrDefault loads from dir when it is set, otherwise from the bundled copy
func LoadOrDefault(dir string) (*Dataset, error) {
	if dir == "" {
		return LoadDefault()
	}
	return Load(dir)
}

// LoadFS reads the four datasets from fsys
func LoadFS(fsys fs.FS) (*Dataset, error) {
	courses, err := readLines(fsys, CoursesFile)
	if err != nil {
		return nil, err
	}

	male, err := readNameSet(fsys, MaleNamesFile)
	if err != nil {
		return nil, err
	}

	female, err := readNameSet(fsys, FemaleNamesFile)
	if err != nil {
		return nil, err
	}

	raw, err := fs.ReadFile(fsys, SkillsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SkillsFile, err)
	}
	var taxonomy map[string][]string
	if err := json.Unmarshal(raw, &taxonomy); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SkillsFile, err)
	}

	return newDataset(courses, male, female, taxonomy), nil
}

// New builds a Dataset from in-memory values. Names and skills are case-folded.
func New(courses, maleNames, femaleNames []string, taxonomy map[string][]string) *Dataset {
	male := make(map[string]struct{})
	for _, n := range maleNames {
		addNameWords(male, n)
	}
	female := make(map[string]struct{})
	for _, n := range femaleNames {
		addNameWords(female, n)
	}

	trimmed := make([]string, 0, len(courses))
	for _, c := range courses {
		if c = strings.TrimSpace(c); c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return newDataset(trimmed, male, female, taxonomy)
}

func newDataset(courses []string, male, female map[string]struct{}, taxonomy map[string][]string) *Dataset {
	d := &Dataset{
		courses:  courses,
		male:     male,
		female:   female,
		skills:   make(map[string]struct{}, len(taxonomy)),
		synonyms: make(map[string][]string),
	}

	for key, values := range taxonomy {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		d.skills[k] = struct{}{}
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			d.synonyms[v] = append(d.synonyms[v], k)
		}
	}
	for v := range d.synonyms {
		sort.Strings(d.synonyms[v])
	}

	return d
}

// Courses returns the course corpus in file order
func (d *Dataset) Courses() []string {
	out := make([]string, len(d.courses))
	copy(out, d.courses)
	return out
}

// MatchCourse returns the first corpus entry contained in line
func (d *Dataset) MatchCourse(line string) (string, bool) {
	for _, c := range d.courses {
		if strings.Contains(line, c) {
			return c, true
		}
	}
	return "", false
}

// IsMaleName reports whether word is a male first name (case-insensitive)
func (d *Dataset) IsMaleName(word string) bool {
	_, ok := d.male[strings.ToLower(word)]
	return ok
}

// IsFemaleName reports whether word is a female first name (case-insensitive)
func (d *Dataset) IsFemaleName(word string) bool {
	_, ok := d.female[strings.ToLower(word)]
	return ok
}

// IsFirstName reports whether word appears in either name list
func (d *Dataset) IsFirstName(word string) bool {
	return d.IsMaleName(word) || d.IsFemaleName(word)
}

// IsSkill reports whether token is a canonical taxonomy key
func (d *Dataset) IsSkill(token string) bool {
	_, ok := d.skills[token]
	return ok
}

// SynonymKeys returns the canonical keys listing token as a synonym
func (d *Dataset) SynonymKeys(token string) []string {
	return d.synonyms[token]
}

// Stats returns dataset sizes
func (d *Dataset) Stats() Stats {
	return Stats{
		Courses:     len(d.courses),
		MaleNames:   len(d.male),
		FemaleNames: len(d.female),
		Skills:      len(d.skills),
		Synonyms:    len(d.synonyms),
	}
}

// readLines returns the non-blank, non-comment lines of a file
func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reference file %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return lines, nil
}

func readNameSet(fsys fs.FS, name string) (map[string]struct{}, error) {
	lines, err := readLines(fsys, name)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		addNameWords(set, l)
	}
	return set, nil
}

func addNameWords(set map[string]struct{}, entry string) {
	for _, w := range strings.Fields(strings.ToLower(entry)) {
		set[w] = struct{}{}
	}
}
