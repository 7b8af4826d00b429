package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmuoria/resume-parser/internal/models"
)

const (
	// MinExtractedTextLength is the text length below which an extraction is logged as suspicious
	MinExtractedTextLength = 50
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
	// DefaultCommandTimeout bounds external converter processes
	DefaultCommandTimeout = 30 * time.Second
	// DefaultMaxFileSize is the largest document accepted for extraction
	DefaultMaxFileSize = 20 << 20
)

// UnsupportedFormatError is returned for unknown extensions or format tags
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Format)
}

// ExtractionFailedError wraps a decoder failure
type ExtractionFailedError struct {
	Format models.Format
	Name   string
	Err    error
}

func (e *ExtractionFailedError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s extraction failed for %s: %v", e.Format, e.Name, e.Err)
	}
	return fmt.Sprintf("%s extraction failed: %v", e.Format, e.Err)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Err
}

// IsUnsupportedFormat reports whether err is an UnsupportedFormatError
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// IsExtractionFailed reports whether err is an ExtractionFailedError
func IsExtractionFailed(err error) bool {
	var target *ExtractionFailedError
	return errors.As(err, &target)
}

// ExtractorConfig configures the external tools and limits used by Extractor
type ExtractorConfig struct {
	AntiwordPath   string        // default "antiword"
	PDFToTextPath  string        // when set, PDFs go through pdftotext -layout
	CommandTimeout time.Duration // default DefaultCommandTimeout
	MaxFileSize    int64         // default DefaultMaxFileSize
	Logger         *slog.Logger
}

func (c *ExtractorConfig) defaults() {
	if c.AntiwordPath == "" {
		c.AntiwordPath = "antiword"
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor converts source documents into plain text.
// It keeps no per-call state and may be shared between goroutines.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an extractor with cfg, filling in defaults
func NewExtractor(cfg ExtractorConfig) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg}
}

// DetectFormat maps a filename to its format or returns an UnsupportedFormatError
func DetectFormat(filename string) (models.Format, error) {
	f, ok := models.FormatFromFilename(filename)
	if !ok {
		ext := strings.ToLower(filepath.Ext(filename))
		if ext == "" {
			ext = filename
		}
		return "", &UnsupportedFormatError{Format: ext}
	}
	return f, nil
}

// ExtractText reads filePath and extracts its text with a default extractor
func ExtractText(filePath string) (string, error) {
	return NewExtractor(ExtractorConfig{}).ExtractFile(context.Background(), filePath)
}

// ExtractFile reads a file from disk and extracts its text
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) (string, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", &ExtractionFailedError{Format: format, Name: filePath, Err: err}
	}
	if info.Size() > e.cfg.MaxFileSize {
		return "", &ExtractionFailedError{Format: format, Name: filePath,
			Err: fmt.Errorf("file size %d exceeds limit %d", info.Size(), e.cfg.MaxFileSize)}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", &ExtractionFailedError{Format: format, Name: filePath, Err: err}
	}

	return e.Extract(ctx, models.SourceDocument{
		Name:   info.Name(),
		Path:   filePath,
		Format: format,
		Data:   data,
	})
}

// Extract decodes doc according to its format tag
func (e *Extractor) Extract(ctx context.Context, doc models.SourceDocument) (string, error) {
	if !doc.Format.Valid() {
		return "", &UnsupportedFormatError{Format: string(doc.Format)}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(doc.Data)) > e.cfg.MaxFileSize {
		return "", &ExtractionFailedError{Format: doc.Format, Name: doc.Name,
			Err: fmt.Errorf("document size %d exceeds limit %d", len(doc.Data), e.cfg.MaxFileSize)}
	}

	var (
		text string
		err  error
	)
	switch doc.Format {
	case models.FormatTXT:
		text, err = extractTXT(doc.Data)
	case models.FormatPDF:
		text, err = e.extractPDF(ctx, doc)
	case models.FormatDOC:
		text, err = e.extractDOC(ctx, doc)
	case models.FormatDOCX:
		text, err = extractDOCX(doc.Data)
	case models.FormatRTF:
		text, err = extractRTF(doc.Data)
	case models.FormatHTML:
		text, err = extractHTML(doc.Data)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &ExtractionFailedError{Format: doc.Format, Name: doc.Name, Err: err}
	}

	if len(strings.TrimSpace(text)) < MinExtractedTextLength {
		e.cfg.Logger.Warn("extracted text is short, extraction may have failed",
			"file", doc.Name, "format", doc.Format, "chars", len(text))
	}

	return text, nil
}

// extractTXT passes plain text through with normalised line endings
func extractTXT(data []byte) (string, error) {
	content := string(data)
	if IsBinaryData(content) {
		return "", fmt.Errorf("content appears to be binary")
	}
	return normalizeNewlines(content), nil
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	// Check for PDF magic number
	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// Check for ZIP local file header (DOCX files); a bare "PK" is
	// legitimate text such as initials
	if strings.HasPrefix(content, "PK\x03\x04") {
		return true
	}

	// Check for high proportion of non-printable characters
	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
