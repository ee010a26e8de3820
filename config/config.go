package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EngineONNX   = "onnx"
	EngineRemote = "remote"
)

type Config struct {
	ModelPath         string
	Engine            string
	SharedLibraryPath string
	RemoteURL         string
	RemoteTimeout     time.Duration

	Addr            string
	StorageDir      string
	CleanupSchedule string
	Retention       time.Duration
	MaxUploadMB     int64
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ModelPath:         getEnv("RMBG_MODEL_PATH", "models/model.onnx"),
		Engine:            strings.ToLower(getEnv("RMBG_ENGINE", EngineONNX)),
		SharedLibraryPath: os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
		RemoteURL:         os.Getenv("RMBG_REMOTE_URL"),
		Addr:              getEnv("RMBG_ADDR", ":8080"),
		StorageDir:        getEnv("RMBG_STORAGE_DIR", "output"),
		LogLevel:          getEnv("RMBG_LOG_LEVEL", "info"),
	}

	schedule, ok := os.LookupEnv("RMBG_CLEANUP_SCHEDULE")
	if !ok {
		schedule = "@hourly"
	}
	cfg.CleanupSchedule = strings.TrimSpace(schedule)

	var errs []error
	cfg.RemoteTimeout = getDuration("RMBG_REMOTE_TIMEOUT", 60*time.Second, &errs)
	cfg.Retention = getDuration("RMBG_RETENTION", 24*time.Hour, &errs)
	cfg.ShutdownTimeout = getDuration("RMBG_SHUTDOWN_TIMEOUT", 15*time.Second, &errs)
	cfg.MaxUploadMB = getInt("RMBG_MAX_UPLOAD_MB", 20, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations. It is called by Load and again by the
// CLI after flags are applied.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineONNX:
		if c.ModelPath == "" {
			return errors.New("model path is required for the onnx engine")
		}
	case EngineRemote:
		if c.RemoteURL == "" {
			return errors.New("RMBG_REMOTE_URL is required for the remote engine")
		}
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineONNX, EngineRemote)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	if c.RemoteTimeout <= 0 || c.ShutdownTimeout <= 0 || c.Retention <= 0 {
		return errors.New("timeouts and retention must be positive")
	}
	return nil
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getInt(key string, fallback int64, errs *[]error) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}
