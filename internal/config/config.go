package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fmuoria/resume-parser/internal/parser"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	GoogleCloudProject    string `json:"google_cloud_project" yaml:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location" yaml:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path" yaml:"google_credentials_path"`
	GmailCredentialsPath  string `json:"gmail_credentials_path" yaml:"gmail_credentials_path"`
	GmailTokenPath        string `json:"gmail_token_path" yaml:"gmail_token_path"`
	UploadsDir            string `json:"uploads_dir" yaml:"uploads_dir"`
	DatabasePath          string `json:"database_path" yaml:"database_path"`
	ReferenceDataDir      string `json:"reference_data_dir" yaml:"reference_data_dir"` // empty uses the embedded datasets
	AntiwordPath          string `json:"antiword_path" yaml:"antiword_path"`
	PDFToTextPath         string `json:"pdftotext_path" yaml:"pdftotext_path"`
	CommandTimeoutSeconds int    `json:"command_timeout_seconds" yaml:"command_timeout_seconds"`
	MaxFileSize           int64  `json:"max_file_size" yaml:"max_file_size"`
	ExperienceMode        string `json:"experience_mode" yaml:"experience_mode"`   // all or first
	KeywordMatching       string `json:"keyword_matching" yaml:"keyword_matching"` // substring or token
	Workers               int    `json:"workers" yaml:"workers"`
	ResolveNames          bool   `json:"resolve_names" yaml:"resolve_names"`
	VertexModel           string `json:"vertex_model" yaml:"vertex_model"`
	GCSBucket             string `json:"gcs_bucket" yaml:"gcs_bucket"`
	GCSPrefix             string `json:"gcs_prefix" yaml:"gcs_prefix"`
	Port                  string `json:"port" yaml:"port"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		GoogleCloudLocation:   "us-central1",
		GmailCredentialsPath:  "credentials.json",
		GmailTokenPath:        "token.json",
		UploadsDir:            "uploads",
		DatabasePath:          filepath.Join("data", "resumes.db"),
		AntiwordPath:          "antiword",
		CommandTimeoutSeconds: 30,
		MaxFileSize:           20 << 20,
		ExperienceMode:        string(parser.ExperienceAll),
		KeywordMatching:       "substring",
		Workers:               4,
		VertexModel:           "gemini-1.5-flash",
		Port:                  "8080",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/CVResumeParser/config.json
// On Unix: ~/.config/CVResumeParser/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		// Windows
		configDir = filepath.Join(os.Getenv("APPDATA"), "CVResumeParser")
	} else {
		// Unix-like systems
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "CVResumeParser")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load loads configuration from the default config path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path in the format its extension selects
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvOverrides replaces fields with values from the environment
func (c *Config) ApplyEnvOverrides() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("UPLOADS_DIR", &c.UploadsDir)
	str("DATABASE_PATH", &c.DatabasePath)
	str("REFERENCE_DATA_DIR", &c.ReferenceDataDir)
	str("ANTIWORD_PATH", &c.AntiwordPath)
	str("PDFTOTEXT_PATH", &c.PDFToTextPath)
	str("EXPERIENCE_MODE", &c.ExperienceMode)
	str("KEYWORD_MATCHING", &c.KeywordMatching)
	str("GOOGLE_CLOUD_PROJECT", &c.GoogleCloudProject)
	str("GOOGLE_CLOUD_LOCATION", &c.GoogleCloudLocation)
	str("GCS_BUCKET", &c.GCSBucket)

	if v := os.Getenv("PARSE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARSE_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv("RESOLVE_NAMES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RESOLVE_NAMES %q: %w", v, err)
		}
		c.ResolveNames = b
	}

	return nil
}

// CommandTimeout returns the external converter timeout
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ResolveNames {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required when resolve_names is enabled")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required when resolve_names is enabled")
		}
	}

	if c.UploadsDir == "" {
		return fmt.Errorf("uploads_dir is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}

	if _, err := parser.ParseExperienceMode(c.ExperienceMode); err != nil {
		return err
	}
	if _, err := parser.MatcherByName(c.KeywordMatching); err != nil {
		return err
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("command_timeout_seconds must not be negative")
	}

	if c.ReferenceDataDir != "" {
		info, err := os.Stat(c.ReferenceDataDir)
		if err != nil {
			return fmt.Errorf("reference data directory not found: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("reference data path is not a directory: %s", c.ReferenceDataDir)
		}
	}

	if c.GoogleCredentialsPath != "" {
		if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
			return fmt.Errorf("google credentials file not found: %w", err)
		}
	}

	return nil
}

// ApplyToEnv applies configuration values to environment variables
func (c *Config) ApplyToEnv() {
	if c.GoogleCloudProject != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	}
	if c.GoogleCloudLocation != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	}
	if c.GoogleCredentialsPath != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	}
}
