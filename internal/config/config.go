package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Crawl sources.
const (
	SourceDrive = "drive"
	SourceAFS   = "afs"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	SystemFolderID        string
	CrawlSource           string
	GoogleCredentialsFile string
	DrivePageSize         int
	BatchFiles            int
	MaxTextChars          int
	MaxFileBytes          int64
	ChunkMaxChars         int
	ChunkOverlap          int

	DBDriver string
	DBDSN    string

	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingVectorSize int

	// QdrantURL empty disables the vector mirror.
	QdrantURL        string
	QdrantCollection string

	// Roots and Interval come from CRAWL_ROOTS_FILE; Roots is empty without it.
	RootsFile string
	Roots     []RootConfig
	Interval  time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// RootConfig is one root container driven by the scheduler.
type RootConfig struct {
	ID         string `yaml:"id"`
	BatchFiles int    `yaml:"batch_files"`
}

// rootsFile is the YAML layout of CRAWL_ROOTS_FILE.
type rootsFile struct {
	Interval string       `yaml:"interval"`
	Roots    []RootConfig `yaml:"roots"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		SystemFolderID:        getEnv("SYSTEM_FOLDER_ID", ""),
		CrawlSource:           strings.ToLower(getEnv("CRAWL_SOURCE", SourceDrive)),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "./config/service-account.json"),
		DBDriver:              getEnv("DB_DRIVER", DriverSQLite),
		DBDSN:                 getEnv("DB_DSN", ""),
		EmbeddingBaseURL:      getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingAPIKey:       getEnv("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
		EmbeddingModel:        getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		QdrantURL:             getEnv("QDRANT_URL", ""),
		QdrantCollection:      getEnv("QDRANT_COLLECTION", "drive_chunks"),
		RootsFile:             getEnv("CRAWL_ROOTS_FILE", ""),
		APIPort:               getEnv("API_PORT", "9000"),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	ints := []struct {
		key string
		def int
		min int
		dst *int
	}{
		{"DRIVE_PAGE_SIZE", 200, 1, &cfg.DrivePageSize},
		{"DRIVE_SYNC_BATCH_FILES", 10, 1, &cfg.BatchFiles},
		{"DRIVE_MAX_TEXT_CHARS", 60000, 1, &cfg.MaxTextChars},
		{"CHUNK_MAX_CHARS", 1800, 1, &cfg.ChunkMaxChars},
		{"CHUNK_OVERLAP_CHARS", 250, 0, &cfg.ChunkOverlap},
		{"EMBEDDING_VECTOR_SIZE", 1536, 1, &cfg.EmbeddingVectorSize},
	}
	for _, v := range ints {
		if *v.dst, err = getInt(v.key, v.def, v.min); err != nil {
			return nil, err
		}
	}

	maxBytes, err := getInt("DRIVE_MAX_FILE_BYTES", 120000000, 1)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileBytes = int64(maxBytes)

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if cfg.RootsFile != "" {
		if err := cfg.loadRoots(cfg.RootsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DBDriver == DriverSQLite {
		if cfg.DBDSN == "" {
			cfg.DBDSN = "./data/driveindex.db"
		}
		// Create the data directory for the database file
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SystemFolderID == "" && len(c.Roots) == 0 {
		return fmt.Errorf("SYSTEM_FOLDER_ID is required")
	}
	if c.CrawlSource != SourceDrive && c.CrawlSource != SourceAFS {
		return fmt.Errorf("CRAWL_SOURCE must be %q or %q, got %q", SourceDrive, SourceAFS, c.CrawlSource)
	}
	if c.CrawlSource == SourceDrive && c.GoogleCredentialsFile == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required")
	}
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if c.ChunkOverlap >= c.ChunkMaxChars {
		return fmt.Errorf("CHUNK_OVERLAP_CHARS must be less than CHUNK_MAX_CHARS")
	}
	return nil
}

// loadRoots reads the scheduler roots file.
func (c *Config) loadRoots(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read roots file: %w", err)
	}

	var f rootsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse roots file: %w", err)
	}

	for i, r := range f.Roots {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("roots file: root %d has no id", i)
		}
		if r.BatchFiles < 0 {
			return fmt.Errorf("roots file: root %s has negative batch_files", r.ID)
		}
		if r.BatchFiles == 0 {
			f.Roots[i].BatchFiles = c.BatchFiles
		}
	}

	if f.Interval != "" {
		interval, err := time.ParseDuration(f.Interval)
		if err != nil {
			return fmt.Errorf("roots file: invalid interval: %w", err)
		}
		if interval < 0 {
			return errors.New("roots file: interval must not be negative")
		}
		c.Interval = interval
	}

	c.Roots = f.Roots
	return nil
}

// loadDotEnv loads the first .env found in the working directory or one of
// its parents. Missing files are ignored.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses an integer variable that must be at least minValue.
func getInt(key string, defaultValue, minValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n < minValue {
		return 0, fmt.Errorf("%s must be at least %d", key, minValue)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}
