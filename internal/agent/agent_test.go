package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/fmuoria/resume-parser/internal/config"
	"github.com/fmuoria/resume-parser/internal/ingestion"
	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/reconcile"
	"github.com/fmuoria/resume-parser/internal/refdata"
	"github.com/fmuoria/resume-parser/internal/store"
)

const (
	janeResume = "Jane Doe\njane.doe@example.com\nSKILLS\nPython, Go"
	janeMore   = "Jane Doe\njane.doe@example.com\nSKILLS\nPython, Go, SQL"
	priyaSame  = "Priya Sharma\njane.doe@example.com\nSKILLS\nPython"
	twoNames   = "Jane Doe\nJohn Street Road\njane.doe@example.com\nSKILLS\nGo"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func testDataset() *refdata.Dataset {
	return refdata.New(
		[]string{"Bachelor of Science", "B.Sc"},
		[]string{"john", "rahul"},
		[]string{"priya", "jane"},
		map[string][]string{
			"python": {"py"},
			"go":     {"golang"},
			"sql":    {"mysql"},
		},
	)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.UploadsDir = filepath.Join(t.TempDir(), "uploads")
	cfg.Workers = 2
	return cfg
}

func newTestAgent(t *testing.T, withStore bool, gen *fakeGenerator) *ResumeAgent {
	t.Helper()
	cfg := testConfig(t)

	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(filepath.Join(t.TempDir(), "resumes.db"))
		if err != nil {
			t.Fatalf("store.Open() error: %v", err)
		}
	}

	var a *ResumeAgent
	var err error
	if gen != nil {
		a, err = NewResumeAgentWith(cfg, testDataset(), st, gen)
	} else {
		a, err = NewResumeAgentWith(cfg, testDataset(), st, nil)
	}
	if err != nil {
		t.Fatalf("NewResumeAgentWith() error: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func txtDoc(name, text string) models.SourceDocument {
	return models.SourceDocument{Name: name, Format: models.FormatTXT, Data: []byte(text)}
}

func TestNewResumeAgentWith_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "experience mode", mutate: func(c *config.Config) { c.ExperienceMode = "latest" }},
		{name: "keyword matching", mutate: func(c *config.Config) { c.KeywordMatching = "fuzzy" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			if _, err := NewResumeAgentWith(cfg, testDataset(), nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseDocument(t *testing.T) {
	a := newTestAgent(t, false, nil)

	res, err := a.ParseDocument(context.Background(), txtDoc("jane.txt", janeResume))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	if res.ID == "" {
		t.Error("expected an ID without a store")
	}
	if res.Filename != "jane.txt" || res.Format != models.FormatTXT {
		t.Errorf("unexpected metadata: %+v", res)
	}
	if want := []string{"jane.doe@example.com"}; !reflect.DeepEqual(res.Record.Emails, want) {
		t.Errorf("Emails = %v, want %v", res.Record.Emails, want)
	}
	if want := []string{"go", "python"}; !reflect.DeepEqual(res.Record.Skills, want) {
		t.Errorf("Skills = %v, want %v", res.Record.Skills, want)
	}
	if res.Reconcile != nil {
		t.Error("no reconciliation expected without a store")
	}
}

func TestParseDocument_Errors(t *testing.T) {
	a := newTestAgent(t, false, nil)

	res, err := a.ParseDocument(context.Background(), models.SourceDocument{Name: "cv.odt", Format: "odt", Data: []byte("x")})
	if !ingestion.IsUnsupportedFormat(err) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if res.Error == "" {
		t.Error("result should carry the error message")
	}

	_, err = a.ParseDocument(context.Background(), models.SourceDocument{Name: "cv.rtf", Format: models.FormatRTF, Data: []byte("not rtf")})
	if !ingestion.IsExtractionFailed(err) {
		t.Fatalf("expected ExtractionFailedError, got %v", err)
	}
}

func TestParseDocument_ResolvesName(t *testing.T) {
	tests := []struct {
		name      string
		gen       *fakeGenerator
		text      string
		want      string
		wantCalls int
	}{
		{
			name:      "model picks candidate",
			gen:       &fakeGenerator{response: `{"name": "Jane Doe"}`},
			text:      twoNames,
			want:      "Jane Doe",
			wantCalls: 1,
		},
		{
			name:      "model failure is not fatal",
			gen:       &fakeGenerator{err: errors.New("unavailable")},
			text:      twoNames,
			want:      "",
			wantCalls: 1,
		},
		{
			name:      "single candidate needs no model",
			gen:       &fakeGenerator{},
			text:      janeResume,
			want:      "Jane Doe",
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(t, false, tt.gen)
			res, err := a.ParseDocument(context.Background(), txtDoc("cv.txt", tt.text))
			if err != nil {
				t.Fatalf("ParseDocument() error: %v", err)
			}
			if res.ResolvedName != tt.want {
				t.Errorf("ResolvedName = %q, want %q", res.ResolvedName, tt.want)
			}
			if tt.gen.calls != tt.wantCalls {
				t.Errorf("generator calls = %d, want %d", tt.gen.calls, tt.wantCalls)
			}
		})
	}
}

func TestParseDocument_Reconciles(t *testing.T) {
	a := newTestAgent(t, true, nil)
	ctx := context.Background()

	first, err := a.ParseDocument(ctx, txtDoc("jane.txt", janeResume))
	if err != nil {
		t.Fatal(err)
	}
	if first.Reconcile == nil || reconcile.Status(first.Reconcile.Status) != reconcile.StatusNew {
		t.Fatalf("first parse should be new, got %+v", first.Reconcile)
	}

	dup, err := a.ParseDocument(ctx, txtDoc("jane-copy.txt", janeResume))
	if err != nil {
		t.Fatal(err)
	}
	if reconcile.Status(dup.Reconcile.Status) != reconcile.StatusNoAction || dup.ID != first.ID {
		t.Errorf("duplicate: status %d id %s, want no action on %s", dup.Reconcile.Status, dup.ID, first.ID)
	}

	more, err := a.ParseDocument(ctx, txtDoc("jane-2.txt", janeMore))
	if err != nil {
		t.Fatal(err)
	}
	if reconcile.Status(more.Reconcile.Status) != reconcile.StatusMerge || more.ID != first.ID {
		t.Errorf("update: status %d id %s, want merge on %s", more.Reconcile.Status, more.ID, first.ID)
	}
	stored, err := a.Store().Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"go", "python", "sql"}; !reflect.DeepEqual(stored.Record.Skills, want) {
		t.Errorf("merged skills = %v, want %v", stored.Record.Skills, want)
	}

	other, err := a.ParseDocument(ctx, txtDoc("priya.txt", priyaSame))
	if err != nil {
		t.Fatal(err)
	}
	if reconcile.Status(other.Reconcile.Status) != reconcile.StatusConflict {
		t.Errorf("conflict: status %d, want %d", other.Reconcile.Status, reconcile.StatusConflict)
	}
	if other.ID == first.ID {
		t.Error("conflicting resume should be stored separately")
	}

	all, err := a.Store().List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("stored %d resumes, want 2", len(all))
	}
}

func writeUploads(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIngestFromUpload(t *testing.T) {
	a := newTestAgent(t, false, nil)
	writeUploads(t, a.cfg.UploadsDir, map[string]string{
		"a.txt":     janeResume,
		"b.rtf":     "broken",
		"c.txt":     priyaSame,
		"notes.odt": "skipped",
	})

	var (
		mu       sync.Mutex
		messages []string
	)
	a.SetProgressCallback(func(current, total int, message string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, message)
	})

	if err := a.IngestFromUpload(context.Background()); err != nil {
		t.Fatalf("IngestFromUpload() error: %v", err)
	}

	results := a.GetResults()
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"a.txt", "b.rtf", "c.txt"} {
		if results[i].Filename != want {
			t.Errorf("result %d = %s, want %s", i, results[i].Filename, want)
		}
	}
	if results[1].Error == "" {
		t.Error("broken rtf should carry an error")
	}
	if results[0].Error != "" || results[2].Error != "" {
		t.Errorf("unexpected errors: %q, %q", results[0].Error, results[2].Error)
	}

	report, err := a.GetReport()
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if report.Parsed != 2 || report.Failed != 1 || len(report.Resumes) != 3 {
		t.Errorf("report = parsed %d failed %d resumes %d", report.Parsed, report.Failed, len(report.Resumes))
	}

	mu.Lock()
	last := messages[len(messages)-1]
	mu.Unlock()
	if last != "Processing complete!" {
		t.Errorf("last progress message = %q", last)
	}

	// the returned slice is a copy
	results[0].Filename = "changed"
	if a.GetResults()[0].Filename != "a.txt" {
		t.Error("GetResults() exposed internal state")
	}
}

func TestIngestFromUpload_Empty(t *testing.T) {
	a := newTestAgent(t, false, nil)
	if err := a.IngestFromUpload(context.Background()); err == nil {
		t.Error("expected error for empty uploads directory")
	}
	if _, err := a.GetReport(); err == nil {
		t.Error("expected error before any ingestion")
	}
}

func TestIngestFromUpload_Cancelled(t *testing.T) {
	a := newTestAgent(t, false, nil)
	writeUploads(t, a.cfg.UploadsDir, map[string]string{"a.txt": janeResume})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.IngestFromUpload(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("IngestFromUpload() error = %v, want context.Canceled", err)
	}
}

func TestParseFile(t *testing.T) {
	a := newTestAgent(t, false, nil)
	path := filepath.Join(t.TempDir(), "jane.txt")
	if err := os.WriteFile(path, []byte(janeResume), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := a.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if res.Filename != "jane.txt" || len(res.Record.Emails) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}

	if _, err := a.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); !ingestion.IsExtractionFailed(err) {
		t.Errorf("missing file error = %v, want ExtractionFailedError", err)
	}
}
