package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies the container format of a source document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
	FormatRTF  Format = "rtf"
	FormatHTML Format = "html"
	FormatTXT  Format = "txt"
)

// SupportedFormats lists every format the extractor can decode
var SupportedFormats = []Format{FormatPDF, FormatDOC, FormatDOCX, FormatRTF, FormatHTML, FormatTXT}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	for _, s := range SupportedFormats {
		if f == s {
			return true
		}
	}
	return false
}

// FormatFromFilename maps a file extension to a Format.
// The second return value is false for unknown extensions.
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".doc":
		return FormatDOC, true
	case ".docx":
		return FormatDOCX, true
	case ".rtf":
		return FormatRTF, true
	case ".html", ".htm":
		return FormatHTML, true
	case ".txt":
		return FormatTXT, true
	}
	return "", false
}

// SourceDocument is an uploaded resume blob with its declared format
type SourceDocument struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Format Format `json:"format"`
	Data   []byte `json:"-"`
}

// Education holds the three independent education lists
type Education struct {
	Dates        []string `json:"education-dates"`
	Institutions []string `json:"school-college"`
	Degrees      []string `json:"education-degrees"`
}

// ExtractedRecord is the structured result of parsing one resume
type ExtractedRecord struct {
	Emails     []string          `json:"emails"`
	Name       []string          `json:"name"` // candidate set, sorted
	Phones     []string          `json:"phones"`
	Skills     []string          `json:"skills"` // sorted set
	Education  Education         `json:"education"`
	Experience map[string]string `json:"experience"` // date range -> description line
}

// NewExtractedRecord returns a record whose collections are empty but non-nil
func NewExtractedRecord() ExtractedRecord {
	return ExtractedRecord{
		Emails: []string{},
		Name:   []string{},
		Phones: []string{},
		Skills: []string{},
		Education: Education{
			Dates:        []string{},
			Institutions: []string{},
			Degrees:      []string{},
		},
		Experience: map[string]string{},
	}
}

// IsEmpty reports whether no field produced any value
func (r ExtractedRecord) IsEmpty() bool {
	return len(r.Emails) == 0 && len(r.Name) == 0 && len(r.Phones) == 0 &&
		len(r.Skills) == 0 && len(r.Education.Dates) == 0 &&
		len(r.Education.Institutions) == 0 && len(r.Education.Degrees) == 0 &&
		len(r.Experience) == 0
}

// PrimaryEmail returns the first extracted email or an empty string
func (r ExtractedRecord) PrimaryEmail() string {
	if len(r.Emails) == 0 {
		return ""
	}
	return strings.ToLower(r.Emails[0])
}

// ReconcileResult summarises how a parsed resume relates to a stored one
type ReconcileResult struct {
	Status         int      `json:"status"` // 0 no action, 1 merge, 2 conflict, 3 new
	StatusText     string   `json:"status_text"`
	MatchedID      string   `json:"matched_id,omitempty"`
	ConflictFields []string `json:"conflict_fields"`
	MergeFields    []string `json:"merge_fields"`
}

// ParsedResume is a stored parse result for one document
type ParsedResume struct {
	ID           string           `json:"id"`
	Filename     string           `json:"filename"`
	Format       Format           `json:"format"`
	Record       ExtractedRecord  `json:"record"`
	ResolvedName string           `json:"resolved_name,omitempty"`
	Reconcile    *ReconcileResult `json:"reconcile,omitempty"`
	Error        string           `json:"error,omitempty"`
	ParsedAt     time.Time        `json:"parsed_at"`
}

// DisplayName returns the resolved name, the first candidate, or the filename
func (p ParsedResume) DisplayName() string {
	if p.ResolvedName != "" {
		return p.ResolvedName
	}
	if len(p.Record.Name) > 0 {
		return p.Record.Name[0]
	}
	return p.Filename
}

// IngestRequest represents the request payload for batch ingestion
type IngestRequest struct {
	Method       string `json:"method"`        // "upload", "gmail" or "gcs"
	GmailSubject string `json:"gmail_subject"` // Subject filter for Gmail
	GCSPrefix    string `json:"gcs_prefix"`    // Object prefix override for GCS
}

// ReportResponse represents the response with all parsed resumes of the last batch
type ReportResponse struct {
	Resumes   []ParsedResume `json:"resumes"`
	Parsed    int            `json:"parsed"`
	Failed    int            `json:"failed"`
	Timestamp string         `json:"timestamp"`
}
