// Package config loads runtime settings from the environment, with an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ImageHostNone  = "none"
	ImageHostImgur = "imgur"
	ImageHostS3    = "s3"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Suggestion SuggestionConfig
	Image      ImageConfig
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

// AuthConfig holds the secrets shared with the external identity provider.
type AuthConfig struct {
	SessionSecret       string
	IdentityTokenSecret string
}

// SuggestionConfig configures the best-effort AI helpers.
type SuggestionConfig struct {
	LLMBaseURL     string
	LLMToken       string
	LLMModel       string
	SummaryURL     string
	SummaryKey     string
	ImageSearchURL string
	RPS            float64
	Burst          int
}

type ImageConfig struct {
	Host           string
	ImgurClientID  string
	ImgurUploadURL string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, reading env vars from system")
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			SessionSecret:       getEnv("SESSION_SECRET", "secret_key_change_me"),
			IdentityTokenSecret: os.Getenv("IDENTITY_TOKEN_SECRET"),
		},
		Suggestion: SuggestionConfig{
			LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			LLMToken:       os.Getenv("LLM_TOKEN"),
			LLMModel:       getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			SummaryURL:     getEnv("SUMMARY_API_URL", "https://api.apyhub.com/ai/summarize-text"),
			SummaryKey:     os.Getenv("SUMMARY_API_KEY"),
			ImageSearchURL: getEnv("IMAGE_SEARCH_URL", "https://lexica.art/api/v1/search"),
		},
		Image: ImageConfig{
			Host:           strings.ToLower(getEnv("IMAGE_HOST", ImageHostNone)),
			ImgurClientID:  os.Getenv("IMGUR_CLIENT_ID"),
			ImgurUploadURL: getEnv("IMGUR_UPLOAD_URL", "https://api.imgur.com/3/image"),
			S3Bucket:       os.Getenv("S3_BUCKET"),
			S3Region:       getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:     os.Getenv("S3_ENDPOINT"),
			S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
			S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),
		},
	}

	var err error
	if cfg.Suggestion.RPS, err = getFloat("SUGGESTION_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.Suggestion.Burst, err = getInt("SUGGESTION_BURST", 5); err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" && cfg.Database.Driver == DriverPostgres {
		// Fallback for local dev if not set
		cfg.Database.URL = "host=localhost user=postgres password=postgres dbname=inkpost port=5432 sslmode=disable"
	}
	if cfg.Database.URL == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.URL = "inkpost.db"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate checks option values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}

	switch c.Image.Host {
	case ImageHostNone:
	case ImageHostImgur:
		if c.Image.ImgurClientID == "" {
			errs = append(errs, errors.New("IMGUR_CLIENT_ID is required when IMAGE_HOST=imgur"))
		}
	case ImageHostS3:
		if c.Image.S3Bucket == "" || c.Image.S3PublicURL == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_PUBLIC_URL are required when IMAGE_HOST=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported IMAGE_HOST %q", c.Image.Host))
	}

	if c.IsProduction() && c.Auth.IdentityTokenSecret == "" {
		errs = append(errs, errors.New("IDENTITY_TOKEN_SECRET is required in production"))
	}
	if c.Suggestion.RPS <= 0 || c.Suggestion.Burst <= 0 {
		errs = append(errs, errors.New("SUGGESTION_RPS and SUGGESTION_BURST must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}
