package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmuoria/resume-parser/internal/agent"
	"github.com/fmuoria/resume-parser/internal/api"
	"github.com/fmuoria/resume-parser/internal/config"
	"github.com/fmuoria/resume-parser/internal/export"
	"github.com/fmuoria/resume-parser/internal/gui"
	"github.com/fmuoria/resume-parser/internal/models"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file (default: user config dir)")
	envFile := flag.String("env", ".env", "dotenv file to load before applying environment overrides")
	useGUI := flag.Bool("gui", false, "start the desktop interface instead of the HTTP server")
	parseOnly := flag.Bool("parse", false, "parse the files given as arguments, print JSON and exit")
	exportPath := flag.String("export", "", "with -parse, also write an Excel report to this path")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *useGUI:
		app, err := gui.NewApp(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to start GUI: %v", err)
		}
		app.Run()
	case *parseOnly:
		if err := parseFiles(ctx, cfg, flag.Args(), *exportPath); err != nil {
			log.Fatal(err)
		}
	default:
		if err := serve(ctx, cfg); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// loadConfig layers the config file, the dotenv file and the process
// environment, in that order
func loadConfig(path, envFile string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseFiles runs each file through the pipeline and prints the results as JSON
func parseFiles(ctx context.Context, cfg *config.Config, files []string, exportPath string) error {
	if len(files) == 0 {
		return errors.New("no files given to -parse")
	}

	resumeAgent, err := agent.NewResumeAgent(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	defer resumeAgent.Close()

	results := make([]models.ParsedResume, 0, len(files))
	for _, f := range files {
		res, err := resumeAgent.ParseFile(ctx, f)
		if err != nil {
			log.Printf("Failed to parse %s: %v", f, err)
		}
		results = append(results, res)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	if exportPath != "" {
		if err := export.ExportToExcel(results, exportPath); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
	}
	return nil
}

// serve runs the HTTP API until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config) error {
	resumeAgent, err := agent.NewResumeAgent(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	defer resumeAgent.Close()

	server := api.NewServer(resumeAgent)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Starting Resume Parser on port %s...\n", cfg.Port)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /parse - Parse a single resume\n")
	fmt.Printf("  POST /ingest - Parse uploads, Gmail attachments or a bucket prefix\n")
	fmt.Printf("  GET /report - Get results of the last batch\n")
	fmt.Printf("  GET /resumes - List stored resumes\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
