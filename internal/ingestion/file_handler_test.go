package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fmuoria/resume-parser/internal/models"
)

func TestNewFileHandler(t *testing.T) {
	fh := NewFileHandler("test_uploads")
	if fh == nil {
		t.Fatal("Expected non-nil FileHandler")
	}

	if fh.uploadsDir != "test_uploads" {
		t.Errorf("Expected uploadsDir 'test_uploads', got '%s'", fh.uploadsDir)
	}
}

func TestSaveUploadedFile(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "uploads")
	fh := NewFileHandler(tmpDir)

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "plain name", filename: "resume.txt", want: "resume.txt"},
		{name: "directory components dropped", filename: "../../etc/resume.pdf", want: "resume.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := fh.SaveUploadedFile(tt.filename, strings.NewReader("Test resume content"))
			if err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}

			expectedPath := filepath.Join(tmpDir, tt.want)
			if path != expectedPath {
				t.Errorf("Expected path %s, got %s", expectedPath, path)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read file: %v", err)
			}
			if string(data) != "Test resume content" {
				t.Errorf("Expected content 'Test resume content', got '%s'", string(data))
			}
		})
	}
}

func TestLoadDocuments(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"b_resume.txt": "Jane Doe resume",
		"a_resume.PDF": "%PDF-1.4",
		"notes.odt":    "ignored",
		"photo.jpg":    "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "nested.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	fh := NewFileHandler(tmpDir)
	docs, err := fh.LoadDocuments()
	if err != nil {
		t.Fatalf("Failed to load documents: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}

	if docs[0].Name != "a_resume.PDF" || docs[0].Format != models.FormatPDF {
		t.Errorf("Unexpected first document: %s (%s)", docs[0].Name, docs[0].Format)
	}
	if docs[1].Name != "b_resume.txt" || docs[1].Format != models.FormatTXT {
		t.Errorf("Unexpected second document: %s (%s)", docs[1].Name, docs[1].Format)
	}
	if string(docs[1].Data) != "Jane Doe resume" {
		t.Errorf("Content mismatch: %q", docs[1].Data)
	}
	if docs[1].Path != filepath.Join(tmpDir, "b_resume.txt") {
		t.Errorf("Unexpected path %s", docs[1].Path)
	}
}

func TestLoadDocuments_MissingDir(t *testing.T) {
	fh := NewFileHandler(filepath.Join(t.TempDir(), "missing"))
	docs, err := fh.LoadDocuments()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected no documents, got %d", len(docs))
	}
}

func TestClearUploads(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "test.txt"), []byte("test"), 0644)

	fh := NewFileHandler(tmpDir)
	err := fh.ClearUploads()
	if err != nil {
		t.Fatalf("Failed to clear uploads: %v", err)
	}

	// Directory should exist but be empty
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("Expected empty directory, got %d entries", len(entries))
	}
}
