package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Nothing is hard-required: with an empty environment the service
// runs fully local (in-memory job store, in-process dispatch, synthetic
// generation), which keeps development and CI self-contained.
type Config struct {
	AppEnv string
	Port   string

	// Generative backend.
	GeminiAPIKey  string
	GeminiBaseURL string
	ImageModel    string
	VideoModel    string

	// Durable storage. GCS wins when a bucket is configured; otherwise the
	// filesystem store is used when StoragePath is set; otherwise jobs live
	// in memory only.
	GCSBucket     string
	GCSToken      string
	StoragePath   string
	PublicBaseURL string

	// Managed dispatch. Managed mode is active iff WorkerServiceURL is set.
	WorkerServiceURL   string
	CloudTasksBaseURL  string
	CloudTasksProject  string
	CloudTasksLocation string
	CloudTasksQueue    string
	CloudTasksToken    string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. It fails on values that cannot mean anything
// (non-numeric port or timeout) rather than silently substituting a
// default.
func LoadConfig() (*Config, error) {
	readTimeout, err := getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ImageModel:    getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		VideoModel:    getEnv("VIDEO_MODEL", "veo-3.1-fast-generate-001"),

		GCSBucket:     os.Getenv("GOOGLE_CLOUD_BUCKET_NAME"),
		GCSToken:      os.Getenv("GOOGLE_CLOUD_STORAGE_TOKEN"),
		StoragePath:   os.Getenv("STORAGE_PATH"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/static"),

		WorkerServiceURL:   os.Getenv("WORKER_SERVICE_URL"),
		CloudTasksBaseURL:  getEnv("CLOUD_TASKS_BASE_URL", "https://cloudtasks.googleapis.com/v2"),
		CloudTasksProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		CloudTasksLocation: getEnv("CLOUD_TASKS_LOCATION", "us-central1"),
		CloudTasksQueue:    getEnv("CLOUD_TASKS_QUEUE", "video-jobs"),
		CloudTasksToken:    os.Getenv("CLOUD_TASKS_TOKEN"),

		HTTPReadTimeout:  time.Second * time.Duration(readTimeout),
		HTTPWriteTimeout: time.Second * time.Duration(writeTimeout),
		HTTPIdleTimeout:  time.Second * time.Duration(idleTimeout),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("config: PORT must be numeric, got %q", cfg.Port)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return i, nil
}
