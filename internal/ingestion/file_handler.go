package ingestion

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fmuoria/resume-parser/internal/models"
)

// FileHandler manages resume files in the uploads directory
type FileHandler struct {
	uploadsDir string
	logger     *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
		logger:     slog.Default(),
	}
}

// SaveUploadedFile saves an uploaded file to the uploads directory.
// Directory components in filename are discarded.
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filePath := filepath.Join(fh.uploadsDir, name)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadDocuments loads every supported resume from the uploads directory,
// sorted by filename. Files with other extensions are skipped.
func (fh *FileHandler) LoadDocuments() ([]models.SourceDocument, error) {
	files, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SourceDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	documents := make([]models.SourceDocument, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filename := file.Name()
		format, err := DetectFormat(filename)
		if err != nil {
			fh.logger.Debug("skipping unsupported file", "file", filename)
			continue
		}

		filePath := filepath.Join(fh.uploadsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
		}

		documents = append(documents, models.SourceDocument{
			Name:   filename,
			Path:   filePath,
			Format: format,
			Data:   content,
		})
	}

	sort.Slice(documents, func(i, j int) bool { return documents[i].Name < documents[j].Name })
	return documents, nil
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
