package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fmuoria/resume-parser/internal/agent"
	"github.com/fmuoria/resume-parser/internal/export"
	"github.com/fmuoria/resume-parser/internal/ingestion"
	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/store"
)

// maxUploadSize bounds multipart request bodies
const maxUploadSize = 32 << 20

// Server handles HTTP requests
type Server struct {
	agent  *agent.ResumeAgent
	logger *slog.Logger
}

// NewServer creates a new API server
func NewServer(agent *agent.ResumeAgent) *Server {
	return &Server{
		agent:  agent,
		logger: slog.Default(),
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/export", s.handleExport)
	mux.HandleFunc("GET /resumes", s.handleListResumes)
	mux.HandleFunc("GET /resumes/{id}", s.handleGetResume)
	mux.HandleFunc("DELETE /resumes/{id}", s.handleDeleteResume)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Resume Parser",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /parse":          "Parse a single uploaded resume",
			"POST /ingest":         "Parse uploads, Gmail attachments or a Cloud Storage prefix",
			"GET /report":          "Get results of the last batch",
			"GET /report/export":   "Download the last batch as an Excel workbook",
			"GET /resumes":         "List stored resumes",
			"GET /resumes/{id}":    "Get a stored resume",
			"DELETE /resumes/{id}": "Delete a stored resume",
			"GET /health":          "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleParse extracts and parses the multipart "file" field in memory
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	format, err := ingestion.DetectFormat(header.Filename)
	if err != nil {
		s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read file: %v", err))
		return
	}

	result, err := s.agent.ParseDocument(r.Context(), models.SourceDocument{
		Name:   filepath.Base(header.Filename),
		Format: format,
		Data:   data,
	})
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleIngest accepts either a JSON IngestRequest or, for the upload
// method, a multipart form carrying "files"
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
			return
		}
		req.Method = r.FormValue("method")
		req.GmailSubject = r.FormValue("gmail_subject")
		req.GCSPrefix = r.FormValue("gcs_prefix")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var err error
	switch req.Method {
	case "upload":
		if r.MultipartForm != nil {
			if err := s.saveUploads(r); err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		err = s.agent.IngestFromUpload(r.Context())
	case "gmail":
		if req.GmailSubject == "" {
			s.respondError(w, http.StatusBadRequest, "gmail_subject is required for gmail method")
			return
		}
		err = s.agent.IngestFromGmail(r.Context(), req.GmailSubject)
	case "gcs":
		err = s.agent.IngestFromGCS(r.Context(), req.GCSPrefix)
	default:
		s.respondError(w, http.StatusBadRequest, "method must be 'upload', 'gmail' or 'gcs'")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"parsed": report.Parsed,
		"failed": report.Failed,
	})
}

// saveUploads writes the multipart "files" into the uploads directory,
// skipping unsupported formats
func (s *Server) saveUploads(r *http.Request) error {
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return errors.New("no files uploaded")
	}

	for _, fileHeader := range files {
		if _, err := ingestion.DetectFormat(fileHeader.Filename); err != nil {
			s.logger.Info("skipping unsupported file type", "file", fileHeader.Filename)
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("failed to open uploaded file: %w", err)
		}
		_, err = s.agent.FileHandler.SaveUploadedFile(fileHeader.Filename, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to save file %s: %w", fileHeader.Filename, err)
		}
		s.logger.Info("saved file", "file", fileHeader.Filename)
	}
	return nil
}

// handleReport returns the results of the last batch
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// handleExport streams the last batch as an xlsx workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	report, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	dir, err := os.MkdirTemp("", "resume-export-*")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.xlsx")
	if err := export.ExportToExcel(report.Resumes, path); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("resume_report_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// handleListResumes pages through stored resumes, newest first
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	st := s.agent.Store()
	if st == nil {
		s.respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	limit, err := queryInt(r, "limit", store.DefaultListLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resumes []models.ParsedResume
	if email := r.URL.Query().Get("email"); email != "" {
		resumes, err = st.FindByEmail(r.Context(), email)
	} else {
		resumes, err = st.List(r.Context(), limit, offset)
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"resumes": resumes,
		"count":   len(resumes),
	})
}

// handleGetResume returns one stored resume
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	st := s.agent.Store()
	if st == nil {
		s.respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	resume, err := st.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resume)
}

// handleDeleteResume removes one stored resume
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	st := s.agent.Store()
	if st == nil {
		s.respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	if err := st.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusForError maps pipeline errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case ingestion.IsUnsupportedFormat(err):
		return http.StatusUnsupportedMediaType
	case ingestion.IsExtractionFailed(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "duration", time.Since(start))
	})
}
