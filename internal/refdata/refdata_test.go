package refdata

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadDefault(t *testing.T) {
	d, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}

	stats := d.Stats()
	if stats.Courses == 0 || stats.MaleNames == 0 || stats.FemaleNames == 0 || stats.Skills == 0 {
		t.Errorf("Expected every bundled dataset to be non-empty, got %+v", stats)
	}
	if !d.IsSkill("python") {
		t.Error("Expected python in bundled taxonomy")
	}
	if !d.IsFirstName("Rahul") {
		t.Error("Expected Rahul in bundled name lists")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		CoursesFile:     {Data: []byte("# comment\nBachelor of Science\n\nB.Sc\n")},
		MaleNamesFile:   {Data: []byte("John\nMohan Lal\n")},
		FemaleNamesFile: {Data: []byte("Priya\n")},
		SkillsFile:      {Data: []byte(`{"Python": ["Py"], "sql": ["mysql"], "mariadb": ["mysql"]}`)},
	}

	d, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS() error: %v", err)
	}

	courses := d.Courses()
	if len(courses) != 2 || courses[0] != "Bachelor of Science" || courses[1] != "B.Sc" {
		t.Errorf("Expected courses in file order without comments, got %v", courses)
	}

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"male exact", d.IsMaleName("john"), true},
		{"male case-insensitive", d.IsMaleName("JOHN"), true},
		{"multi-word entry first word", d.IsMaleName("mohan"), true},
		{"multi-word entry second word", d.IsMaleName("lal"), true},
		{"female", d.IsFemaleName("priya"), true},
		{"female is not male", d.IsMaleName("priya"), false},
		{"unknown name", d.IsFirstName("zed"), false},
		{"skill key folded", d.IsSkill("python"), true},
		{"synonym is not key", d.IsSkill("py"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	keys := d.SynonymKeys("mysql")
	if len(keys) != 2 || keys[0] != "mariadb" || keys[1] != "sql" {
		t.Errorf("Expected sorted keys [mariadb sql], got %v", keys)
	}
	if got := d.SynonymKeys("py"); len(got) != 1 || got[0] != "python" {
		t.Errorf("Expected [python], got %v", got)
	}
}

func TestLoadFSMissingFile(t *testing.T) {
	fsys := fstest.MapFS{
		CoursesFile: {Data: []byte("B.Sc\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Error("Expected error for missing name lists")
	}
}

func TestLoadFSInvalidTaxonomy(t *testing.T) {
	fsys := fstest.MapFS{
		CoursesFile:     {Data: []byte("B.Sc\n")},
		MaleNamesFile:   {Data: []byte("john\n")},
		FemaleNamesFile: {Data: []byte("jane\n")},
		SkillsFile:      {Data: []byte(`["python"]`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Error("Expected error for taxonomy that is not an object")
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		CoursesFile:     "MBA\n",
		MaleNamesFile:   "arjun\n",
		FemaleNamesFile: "neha\n",
		SkillsFile:      `{"go": ["golang"]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	d, err := LoadOrDefault(dir)
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if c, ok := d.MatchCourse("MBA in Finance"); !ok || c != "MBA" {
		t.Errorf("Expected MBA match, got %q, %v", c, ok)
	}
	if _, ok := d.MatchCourse("Nothing here"); ok {
		t.Error("Expected no course match")
	}

	if _, err := Load(filepath.Join(dir, CoursesFile)); err == nil {
		t.Error("Expected error when path is a file")
	}
}

func TestNew(t *testing.T) {
	d := New([]string{" B.Tech ", ""}, []string{"Rahul"}, []string{"Sneha"}, map[string][]string{"C++": {"CPP"}})
	if got := d.Courses(); len(got) != 1 || got[0] != "B.Tech" {
		t.Errorf("Expected trimmed courses, got %v", got)
	}
	if !d.IsSkill("c++") {
		t.Error("Expected c++ key")
	}
	if keys := d.SynonymKeys("cpp"); len(keys) != 1 || keys[0] != "c++" {
		t.Errorf("Expected cpp -> c++, got %v", keys)
	}
	if !d.IsMaleName("rahul") || !d.IsFemaleName("SNEHA") {
		t.Error("Expected names to be case-folded")
	}
}
