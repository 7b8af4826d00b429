package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fmuoria/resume-parser/internal/config"
	"github.com/fmuoria/resume-parser/internal/ingestion"
	"github.com/fmuoria/resume-parser/internal/llm"
	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/parser"
	"github.com/fmuoria/resume-parser/internal/reconcile"
	"github.com/fmuoria/resume-parser/internal/refdata"
	"github.com/fmuoria/resume-parser/internal/resolve"
	"github.com/fmuoria/resume-parser/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProgressCallback is called to report progress during processing
type ProgressCallback func(current, total int, message string)

// ResumeAgent orchestrates extraction, parsing, name resolution,
// reconciliation and persistence of resumes
type ResumeAgent struct {
	FileHandler *ingestion.FileHandler
	cfg         *config.Config
	extractor   *ingestion.Extractor
	parser      *parser.Parser
	store       *store.Store
	resolver    *resolve.NameResolver
	llmClient   *llm.VertexAIClient
	results     []models.ParsedResume
	mu          sync.RWMutex
	saveMu      sync.Mutex // serialises reconcile and save
	progressCb  ProgressCallback
	logger      *slog.Logger
}

// NewResumeAgent builds an agent from cfg, loading reference data, opening
// the database and, when resolve_names is set, connecting to Vertex AI
func NewResumeAgent(ctx context.Context, cfg *config.Config) (*ResumeAgent, error) {
	data, err := refdata.LoadOrDefault(cfg.ReferenceDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var llmClient *llm.VertexAIClient
	if cfg.ResolveNames {
		llmClient, err = llm.NewVertexAIClientWithConfig(ctx, llm.Config{
			ProjectID: cfg.GoogleCloudProject,
			Location:  cfg.GoogleCloudLocation,
			Model:     cfg.VertexModel,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
	}

	var gen resolve.Generator
	if llmClient != nil {
		gen = llmClient
	}
	a, err := NewResumeAgentWith(cfg, data, st, gen)
	if err != nil {
		st.Close()
		if llmClient != nil {
			llmClient.Close()
		}
		return nil, err
	}
	a.llmClient = llmClient
	return a, nil
}

// NewResumeAgentWith builds an agent from explicit dependencies. A nil store
// disables persistence and reconciliation; a nil generator disables name
// resolution.
func NewResumeAgentWith(cfg *config.Config, data *refdata.Dataset, st *store.Store, gen resolve.Generator) (*ResumeAgent, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	mode, err := parser.ParseExperienceMode(cfg.ExperienceMode)
	if err != nil {
		return nil, err
	}
	matcher, err := parser.MatcherByName(cfg.KeywordMatching)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	a := &ResumeAgent{
		FileHandler: ingestion.NewFileHandler(cfg.UploadsDir),
		cfg:         cfg,
		extractor: ingestion.NewExtractor(ingestion.ExtractorConfig{
			AntiwordPath:   cfg.AntiwordPath,
			PDFToTextPath:  cfg.PDFToTextPath,
			CommandTimeout: cfg.CommandTimeout(),
			MaxFileSize:    cfg.MaxFileSize,
			Logger:         logger,
		}),
		parser: parser.New(data,
			parser.WithMatcher(matcher),
			parser.WithExperienceMode(mode),
			parser.WithLogger(logger),
		),
		store:  st,
		logger: logger,
	}
	if gen != nil {
		a.resolver = resolve.NewNameResolver(gen)
	}
	return a, nil
}

// SetProgressCallback sets the progress callback function
func (a *ResumeAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *ResumeAgent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// Store returns the backing store, or nil when persistence is disabled
func (a *ResumeAgent) Store() *store.Store {
	return a.store
}

// ParseFile reads a resume from disk and parses it
func (a *ResumeAgent) ParseFile(ctx context.Context, path string) (models.ParsedResume, error) {
	format, err := ingestion.DetectFormat(path)
	if err != nil {
		return models.ParsedResume{Filename: filepath.Base(path), Error: err.Error()}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = &ingestion.ExtractionFailedError{Format: format, Name: path, Err: err}
		return models.ParsedResume{Filename: filepath.Base(path), Format: format, Error: err.Error()}, err
	}
	return a.ParseDocument(ctx, models.SourceDocument{
		Name:   filepath.Base(path),
		Path:   path,
		Format: format,
		Data:   data,
	})
}

// ParseDocument runs one document through the whole pipeline. Extraction
// errors are returned unchanged together with a result carrying the message.
func (a *ResumeAgent) ParseDocument(ctx context.Context, doc models.SourceDocument) (models.ParsedResume, error) {
	result := models.ParsedResume{
		Filename: doc.Name,
		Format:   doc.Format,
		Record:   models.NewExtractedRecord(),
		ParsedAt: time.Now().UTC(),
	}

	text, err := a.extractor.Extract(ctx, doc)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Record = a.parser.Parse(text)

	if a.resolver != nil && len(result.Record.Name) > 0 {
		header := a.parser.Segment(text).Name.Lines
		name, err := a.resolver.Resolve(ctx, result.Record.Name, header)
		if err != nil {
			a.logger.Warn("name resolution failed", "file", doc.Name, "error", err)
		} else {
			result.ResolvedName = name
		}
	}

	if a.store == nil {
		result.ID = uuid.NewString()
		return result, nil
	}

	if err := a.reconcileAndSave(ctx, &result); err != nil {
		return result, err
	}
	return result, nil
}

// reconcileAndSave compares r with the newest stored resume sharing its
// primary email and persists it according to the outcome
func (a *ResumeAgent) reconcileAndSave(ctx context.Context, r *models.ParsedResume) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	rr := reconcile.New()
	var stored *models.ParsedResume
	matches, err := a.store.FindByEmail(ctx, r.Record.PrimaryEmail())
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		stored = &matches[0]
		rr = reconcile.Compare(*stored, *r)
	}

	switch reconcile.Status(rr.Status) {
	case reconcile.StatusNoAction:
		r.ID = stored.ID
		r.Reconcile = &rr
		a.logger.Info("duplicate resume, nothing new", "file", r.Filename, "matched", stored.ID)
		return nil
	case reconcile.StatusMerge:
		merged := reconcile.Merge(*stored, *r)
		merged.Reconcile = &rr
		if err := a.store.Save(ctx, &merged); err != nil {
			return err
		}
		r.ID = merged.ID
		r.Reconcile = &rr
		a.logger.Info("merged resume into stored profile", "file", r.Filename, "matched", stored.ID, "fields", rr.MergeFields)
		return nil
	default:
		r.Reconcile = &rr
		return a.store.Save(ctx, r)
	}
}

// IngestFromUpload parses every supported document in the uploads directory
func (a *ResumeAgent) IngestFromUpload(ctx context.Context) error {
	a.reportProgress(0, 100, "Loading documents...")

	documents, err := a.FileHandler.LoadDocuments()
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	if len(documents) == 0 {
		return fmt.Errorf("no documents found in uploads directory")
	}

	a.logger.Info("found documents to parse", "count", len(documents))
	a.reportProgress(10, 100, fmt.Sprintf("Parsing %d documents...", len(documents)))

	return a.processDocuments(ctx, documents)
}

// IngestFromGmail downloads attachments of messages matching subject into
// the uploads directory and parses them
func (a *ResumeAgent) IngestFromGmail(ctx context.Context, subject string) error {
	a.reportProgress(0, 100, "Initializing Gmail handler...")

	gmailHandler, err := ingestion.NewGmailHandlerWithCallback(ctx,
		a.cfg.GmailCredentialsPath, a.cfg.GmailTokenPath, a.cfg.UploadsDir,
		func(message string) { a.reportProgress(5, 100, message) })
	if err != nil {
		return fmt.Errorf("failed to initialize Gmail handler: %w", err)
	}

	if err := a.FileHandler.ClearUploads(); err != nil {
		return fmt.Errorf("failed to clear uploads: %w", err)
	}

	a.reportProgress(5, 100, "Fetching emails from Gmail...")
	if _, err := gmailHandler.FetchAttachmentsWithContext(ctx, subject); err != nil {
		return fmt.Errorf("failed to fetch Gmail attachments: %w", err)
	}

	return a.IngestFromUpload(ctx)
}

// IngestFromGCS downloads resumes under the configured bucket prefix and
// parses them. A non-empty prefix overrides the configured one.
func (a *ResumeAgent) IngestFromGCS(ctx context.Context, prefix string) error {
	if prefix == "" {
		prefix = a.cfg.GCSPrefix
	}

	a.reportProgress(0, 100, "Connecting to Cloud Storage...")
	h, err := ingestion.NewGCSHandler(ctx, a.cfg.GCSBucket, prefix, a.cfg.UploadsDir,
		func(message string) { a.reportProgress(5, 100, message) })
	if err != nil {
		return fmt.Errorf("failed to initialize GCS handler: %w", err)
	}
	defer h.Close()

	if err := a.FileHandler.ClearUploads(); err != nil {
		return fmt.Errorf("failed to clear uploads: %w", err)
	}

	if _, err := h.FetchToUploads(ctx); err != nil {
		return fmt.Errorf("failed to fetch from bucket: %w", err)
	}

	return a.IngestFromUpload(ctx)
}

// processDocuments parses documents concurrently. A failed document is
// recorded on its result and does not stop the batch; cancellation does.
func (a *ResumeAgent) processDocuments(ctx context.Context, documents []models.SourceDocument) error {
	results := make([]models.ParsedResume, len(documents))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, doc := range documents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := a.ParseDocument(gctx, doc)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				a.logger.Warn("failed to parse document", "file", doc.Name, "error", err)
				res.Error = err.Error()
			}
			results[i] = res

			n := int(done.Add(1))
			progress := 10 + (85 * n / len(documents))
			a.reportProgress(progress, 100, fmt.Sprintf("Parsed %s (%d/%d)", doc.Name, n, len(documents)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	a.mu.Lock()
	a.results = results
	a.mu.Unlock()

	a.reportProgress(100, 100, "Processing complete!")

	return nil
}

// GetReport returns the results of the last batch
func (a *ResumeAgent) GetReport() (models.ReportResponse, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.results) == 0 {
		return models.ReportResponse{}, fmt.Errorf("no results available, run ingestion first")
	}

	report := models.ReportResponse{
		Resumes:   make([]models.ParsedResume, len(a.results)),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	copy(report.Resumes, a.results)
	for _, r := range a.results {
		if r.Error != "" {
			report.Failed++
		} else {
			report.Parsed++
		}
	}
	return report, nil
}

// GetResults returns the current results (thread-safe)
func (a *ResumeAgent) GetResults() []models.ParsedResume {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Return a copy to prevent external modification
	resultsCopy := make([]models.ParsedResume, len(a.results))
	copy(resultsCopy, a.results)
	return resultsCopy
}

// Close cleans up resources
func (a *ResumeAgent) Close() error {
	var errs []error
	if a.llmClient != nil {
		errs = append(errs, a.llmClient.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
