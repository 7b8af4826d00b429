package gui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/resume-parser/internal/agent"
	"github.com/fmuoria/resume-parser/internal/config"
	"github.com/fmuoria/resume-parser/internal/export"
	"github.com/fmuoria/resume-parser/internal/ingestion"
	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/parser"
)

// ingestion sources offered in the Parse tab
const (
	sourceUploads = "Uploads folder"
	sourceGmail   = "Gmail"
	sourceGCS     = "Cloud Storage"
)

var resultHeaders = []string{"File", "Candidate", "Emails", "Phones", "Skills", "Status"}

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	agent      *agent.ResumeAgent
	ctx        context.Context
	cancelFunc context.CancelFunc

	// UI Components
	gmailStatusLabel *widget.Label
	authenticateBtn  *widget.Button
	sourceSelect     *widget.Select
	subjectEntry     *widget.Entry
	prefixEntry      *widget.Entry
	addFilesBtn      *widget.Button
	parseFileBtn     *widget.Button
	processBtn       *widget.Button
	cancelBtn        *widget.Button
	progressBar      *widget.ProgressBar
	progressLabel    *widget.Label
	resultsTable     *widget.Table
	exportBtn        *widget.Button

	results []models.ParsedResume
}

// NewApp creates a new GUI application backed by an agent built from cfg
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	ag, err := agent.NewResumeAgent(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := app.New()
	w := a.NewWindow("Resume Parser")
	w.Resize(fyne.NewSize(1000, 700))

	guiApp := &App{
		fyneApp:    a,
		mainWindow: w,
		config:     cfg,
		agent:      ag,
	}

	cfg.ApplyToEnv()
	guiApp.setupUI()

	return guiApp, nil
}

// Run starts the GUI application and releases the agent when the window closes
func (a *App) Run() {
	a.mainWindow.ShowAndRun()
	if err := a.agent.Close(); err != nil {
		log.Printf("Failed to close agent: %v", err)
	}
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Parse Resumes", a.createParseTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
}

// createParseTab creates the main processing tab
func (a *App) createParseTab() fyne.CanvasObject {
	a.gmailStatusLabel = widget.NewLabel("Gmail: Not Authenticated")
	a.authenticateBtn = widget.NewButton("Authenticate Gmail", a.handleAuthenticate)

	a.subjectEntry = widget.NewEntry()
	a.subjectEntry.SetPlaceHolder("e.g., Job Application")

	a.prefixEntry = widget.NewEntry()
	a.prefixEntry.SetPlaceHolder(a.config.GCSPrefix)

	a.addFilesBtn = widget.NewButton("Add File...", a.handleAddFile)
	a.parseFileBtn = widget.NewButton("Parse One File...", a.handleParseFile)

	a.sourceSelect = widget.NewSelect([]string{sourceUploads, sourceGmail, sourceGCS}, a.handleSourceChanged)

	sourceSection := container.NewVBox(
		widget.NewLabel("Source"),
		widget.NewForm(
			widget.NewFormItem("Read from", a.sourceSelect),
			widget.NewFormItem("Gmail subject", a.subjectEntry),
			widget.NewFormItem("Bucket prefix", a.prefixEntry),
		),
		container.NewHBox(a.parseFileBtn, a.addFilesBtn, a.gmailStatusLabel, a.authenticateBtn),
	)

	a.progressBar = widget.NewProgressBar()
	a.progressLabel = widget.NewLabel("Ready")
	a.processBtn = widget.NewButton("Start Parsing", a.handleProcess)
	a.cancelBtn = widget.NewButton("Cancel", a.handleCancel)
	a.cancelBtn.Disable()

	progressSection := container.NewVBox(
		a.progressLabel,
		a.progressBar,
		container.NewHBox(a.processBtn, a.cancelBtn),
	)

	a.resultsTable = widget.NewTable(
		func() (int, int) {
			return len(a.results) + 1, len(resultHeaders)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.SetText(resultHeaders[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			label.TextStyle = fyne.TextStyle{}
			if id.Row-1 < len(a.results) {
				label.SetText(resultCell(a.results[id.Row-1], id.Col))
			}
		},
	)
	for col, width := range []float32{160, 180, 220, 140, 240, 100} {
		a.resultsTable.SetColumnWidth(col, width)
	}

	a.exportBtn = widget.NewButton("Export to Excel", a.handleExport)
	a.exportBtn.Disable()

	resultsSection := container.NewBorder(
		widget.NewLabel("Results"), a.exportBtn, nil, nil,
		container.NewScroll(a.resultsTable),
	)

	a.sourceSelect.SetSelected(sourceUploads)

	return container.NewBorder(
		container.NewVBox(sourceSection, widget.NewSeparator(), progressSection, widget.NewSeparator()),
		nil, nil, nil,
		resultsSection,
	)
}

// resultCell renders one column of a result row
func resultCell(r models.ParsedResume, col int) string {
	switch col {
	case 0:
		return r.Filename
	case 1:
		if r.Error != "" {
			return "-"
		}
		return r.DisplayName()
	case 2:
		return strings.Join(r.Record.Emails, ", ")
	case 3:
		return strings.Join(r.Record.Phones, ", ")
	case 4:
		return strings.Join(r.Record.Skills, ", ")
	case 5:
		if r.Error != "" {
			return "failed"
		}
		if r.Reconcile != nil {
			return r.Reconcile.StatusText
		}
		return "parsed"
	}
	return ""
}

// handleSourceChanged enables the inputs that apply to the chosen source
func (a *App) handleSourceChanged(source string) {
	setEnabled(a.subjectEntry, source == sourceGmail)
	setEnabled(a.authenticateBtn, source == sourceGmail)
	setEnabled(a.prefixEntry, source == sourceGCS)
	setEnabled(a.addFilesBtn, source == sourceUploads)
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	projectEntry := widget.NewEntry()
	projectEntry.SetText(a.config.GoogleCloudProject)

	locationEntry := widget.NewEntry()
	locationEntry.SetText(a.config.GoogleCloudLocation)

	googleCredsEntry := widget.NewEntry()
	googleCredsEntry.SetText(a.config.GoogleCredentialsPath)

	gmailCredsEntry := widget.NewEntry()
	gmailCredsEntry.SetText(a.config.GmailCredentialsPath)

	refDataEntry := widget.NewEntry()
	refDataEntry.SetText(a.config.ReferenceDataDir)
	refDataEntry.SetPlaceHolder("built-in datasets")

	uploadsEntry := widget.NewEntry()
	uploadsEntry.SetText(a.config.UploadsDir)

	databaseEntry := widget.NewEntry()
	databaseEntry.SetText(a.config.DatabasePath)

	bucketEntry := widget.NewEntry()
	bucketEntry.SetText(a.config.GCSBucket)

	workersEntry := widget.NewEntry()
	workersEntry.SetText(strconv.Itoa(a.config.Workers))

	experienceSelect := widget.NewSelect([]string{string(parser.ExperienceAll), string(parser.ExperienceFirst)}, nil)
	experienceSelect.SetSelected(a.config.ExperienceMode)

	matchingSelect := widget.NewSelect([]string{"substring", "token"}, nil)
	matchingSelect.SetSelected(a.config.KeywordMatching)

	resolveCheck := widget.NewCheck("Resolve ambiguous names with Vertex AI", nil)
	resolveCheck.SetChecked(a.config.ResolveNames)

	form := widget.NewForm(
		widget.NewFormItem("Google Cloud Project", projectEntry),
		widget.NewFormItem("Google Cloud Location", locationEntry),
		widget.NewFormItem("Google Credentials", a.browseRow(googleCredsEntry)),
		widget.NewFormItem("Gmail Credentials", a.browseRow(gmailCredsEntry)),
		widget.NewFormItem("Reference Data", refDataEntry),
		widget.NewFormItem("Uploads Folder", uploadsEntry),
		widget.NewFormItem("Database", databaseEntry),
		widget.NewFormItem("Storage Bucket", bucketEntry),
		widget.NewFormItem("Workers", workersEntry),
		widget.NewFormItem("Work Experience", experienceSelect),
		widget.NewFormItem("Keyword Matching", matchingSelect),
		widget.NewFormItem("", resolveCheck),
	)

	apply := func() (*config.Config, error) {
		workers, err := strconv.Atoi(strings.TrimSpace(workersEntry.Text))
		if err != nil {
			return nil, fmt.Errorf("workers must be a number: %w", err)
		}
		cfg := *a.config
		cfg.GoogleCloudProject = projectEntry.Text
		cfg.GoogleCloudLocation = locationEntry.Text
		cfg.GoogleCredentialsPath = googleCredsEntry.Text
		cfg.GmailCredentialsPath = gmailCredsEntry.Text
		cfg.ReferenceDataDir = strings.TrimSpace(refDataEntry.Text)
		cfg.UploadsDir = uploadsEntry.Text
		cfg.DatabasePath = databaseEntry.Text
		cfg.GCSBucket = bucketEntry.Text
		cfg.Workers = workers
		cfg.ExperienceMode = experienceSelect.Selected
		cfg.KeywordMatching = matchingSelect.Selected
		cfg.ResolveNames = resolveCheck.Checked
		return &cfg, cfg.Validate()
	}

	saveBtn := widget.NewButton("Save Settings", func() {
		cfg, err := apply()
		if err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		if err := cfg.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		*a.config = *cfg
		a.config.ApplyToEnv()

		dialog.ShowInformation("Success", "Settings saved. Restart the application to apply parser changes.", a.mainWindow)
	})

	testBtn := widget.NewButton("Validate", func() {
		if _, err := apply(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Configuration is valid", a.mainWindow)
	})

	return container.NewVScroll(container.NewVBox(
		form,
		container.NewHBox(saveBtn, testBtn),
	))
}

// browseRow pairs an entry with a file picker that fills it
func (a *App) browseRow(entry *widget.Entry) fyne.CanvasObject {
	btn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				entry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})
	return container.NewBorder(nil, nil, nil, btn, entry)
}

// handleAddFile copies a picked resume into the uploads folder
func (a *App) handleAddFile() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()

		name := uc.URI().Name()
		if _, err := ingestion.DetectFormat(name); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if _, err := a.agent.FileHandler.SaveUploadedFile(name, uc); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		a.progressLabel.SetText("Added " + name)
	}, a.mainWindow)
}

// handleParseFile parses a single picked file and shows the record as JSON
func (a *App) handleParseFile() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()

		name := uc.URI().Name()
		format, err := ingestion.DetectFormat(name)
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		data, err := io.ReadAll(uc)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read %s: %w", name, err), a.mainWindow)
			return
		}

		a.progressLabel.SetText("Parsing " + name + "...")
		go func() {
			result, err := a.agent.ParseDocument(context.Background(), models.SourceDocument{
				Name:   name,
				Format: format,
				Data:   data,
			})
			fyne.Do(func() {
				if err != nil {
					a.progressLabel.SetText("Error: " + err.Error())
					dialog.ShowError(err, a.mainWindow)
					return
				}
				a.progressLabel.SetText("Parsed " + name)
				a.showRecord(result)
			})
		}()
	}, a.mainWindow)
}

// showRecord opens a read-only JSON view of one result
func (a *App) showRecord(result models.ParsedResume) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}

	view := widget.NewMultiLineEntry()
	view.SetText(string(out))
	view.Wrapping = fyne.TextWrapWord
	view.Disable()

	d := dialog.NewCustom(result.DisplayName(), "Close", container.NewScroll(view), a.mainWindow)
	d.Resize(fyne.NewSize(700, 500))
	d.Show()
}

// handleAuthenticate runs the Gmail OAuth flow in the background
func (a *App) handleAuthenticate() {
	progressDialog := dialog.NewCustomWithoutButtons("Authenticating",
		widget.NewLabel("Authenticating with Gmail...\nCheck the console for the OAuth URL if your browser doesn't open."),
		a.mainWindow)
	progressDialog.Show()
	a.authenticateBtn.Disable()

	go func() {
		_, err := ingestion.NewGmailHandlerWithCallback(context.Background(),
			a.config.GmailCredentialsPath, a.config.GmailTokenPath, a.config.UploadsDir, nil)

		// All UI updates must be done on the main thread using fyne.Do
		fyne.Do(func() {
			progressDialog.Hide()
			a.authenticateBtn.Enable()
			if err != nil {
				dialog.ShowError(fmt.Errorf("authentication failed: %w", err), a.mainWindow)
				return
			}
			a.gmailStatusLabel.SetText("Gmail: Authenticated")
			dialog.ShowInformation("Success", "Gmail authenticated successfully!", a.mainWindow)
		})
	}()
}

// handleProcess ingests from the selected source in the background
func (a *App) handleProcess() {
	source := a.sourceSelect.Selected
	if source == sourceGmail && strings.TrimSpace(a.subjectEntry.Text) == "" {
		dialog.ShowError(errors.New("please enter an email subject filter"), a.mainWindow)
		return
	}

	a.processBtn.Disable()
	a.cancelBtn.Enable()
	a.exportBtn.Disable()

	a.ctx, a.cancelFunc = context.WithCancel(context.Background())
	ctx := a.ctx

	a.agent.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			a.progressBar.SetValue(float64(current) / float64(total))
			a.progressLabel.SetText(message)
		})
	})

	subject := strings.TrimSpace(a.subjectEntry.Text)
	prefix := strings.TrimSpace(a.prefixEntry.Text)

	go func() {
		var err error
		switch source {
		case sourceGmail:
			err = a.agent.IngestFromGmail(ctx, subject)
		case sourceGCS:
			err = a.agent.IngestFromGCS(ctx, prefix)
		default:
			err = a.agent.IngestFromUpload(ctx)
		}

		fyne.Do(func() {
			a.processBtn.Enable()
			a.cancelBtn.Disable()

			if err != nil {
				if errors.Is(err, context.Canceled) {
					a.progressLabel.SetText("Processing canceled")
				} else {
					a.progressLabel.SetText("Error: " + err.Error())
					dialog.ShowError(err, a.mainWindow)
				}
				return
			}

			a.results = a.agent.GetResults()
			a.resultsTable.Refresh()
			a.exportBtn.Enable()

			report, _ := a.agent.GetReport()
			summary := fmt.Sprintf("Complete! Parsed %d, failed %d", report.Parsed, report.Failed)
			a.progressLabel.SetText(summary)

			fyne.CurrentApp().SendNotification(&fyne.Notification{
				Title:   "Parsing Complete",
				Content: summary,
			})
		})
	}()
}

// handleCancel handles cancellation of processing
func (a *App) handleCancel() {
	if a.cancelFunc != nil {
		a.cancelFunc()
		a.progressLabel.SetText("Canceling...")
	}
}

// handleExport handles exporting results to Excel
func (a *App) handleExport() {
	if len(a.results) == 0 {
		dialog.ShowError(errors.New("no results to export"), a.mainWindow)
		return
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	saveDialog := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		outputPath := uc.URI().Path()
		uc.Close()

		if err := export.ExportToExcel(a.results, outputPath); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
			return
		}

		dialog.ShowInformation("Success", "Results exported successfully to "+filepath.Base(outputPath), a.mainWindow)
	}, a.mainWindow)
	saveDialog.SetFileName(fmt.Sprintf("Resume_Results_%s.xlsx", timestamp))
	saveDialog.Show()
}
