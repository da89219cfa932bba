package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

const (
	BackendWhisper = "whisper"
	BackendRemote  = "remote"
)

type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Logging logger.Config           `yaml:"logging"`
	Limits  models.ValidationLimits `yaml:"limits"`
	Speech  SpeechConfig            `yaml:"speech"`
	Storage StorageConfig           `yaml:"storage"`
	Gemini  GeminiConfig            `yaml:"gemini"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxUploadBytes caps the request body independently of the
	// validation limits.
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SpeechConfig struct {
	Backend       string        `yaml:"backend"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Whisper       WhisperConfig `yaml:"whisper"`
	Remote        RemoteConfig  `yaml:"remote"`
}

type WhisperConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
	Threads    int    `yaml:"threads"`
	TempDir    string `yaml:"temp_dir"`
}

type RemoteConfig struct {
	Address         string `yaml:"address"`
	Language        string `yaml:"language"`
	MaxMessageBytes int    `yaml:"max_message_bytes"`
}

type StorageConfig struct {
	S3    S3Config    `yaml:"s3"`
	Minio MinioConfig `yaml:"minio"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Default returns a configuration that runs a local whisper.cpp build.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			MaxUploadBytes:  110 << 20,
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
		Limits: models.DefaultLimits(),
		Speech: SpeechConfig{
			Backend:       BackendWhisper,
			MaxConcurrent: 1,
			Whisper: WhisperConfig{
				BinaryPath: "whisper-cli",
				ModelPath:  "models/ggml-base.bin",
				Language:   "auto",
				Threads:    4,
			},
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides (including a .env file) and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	loadDotEnv()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and fills defaults for zero values.
func (c *Config) Validate() error {
	switch c.Speech.Backend {
	case "":
		c.Speech.Backend = BackendWhisper
	case BackendWhisper, BackendRemote:
	default:
		return fmt.Errorf("speech.backend must be %q or %q, got %q", BackendWhisper, BackendRemote, c.Speech.Backend)
	}

	if c.Speech.Backend == BackendWhisper {
		if c.Speech.Whisper.BinaryPath == "" {
			return fmt.Errorf("speech.whisper.binary_path is required")
		}
		if c.Speech.Whisper.ModelPath == "" {
			return fmt.Errorf("speech.whisper.model_path is required")
		}
	}
	if c.Speech.Backend == BackendRemote && c.Speech.Remote.Address == "" {
		return fmt.Errorf("speech.remote.address is required")
	}

	if c.Limits.MaxDocumentBytes < 0 || c.Limits.MaxAudioBytes < 0 || c.Limits.MaxAudioDurationSeconds < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	defaults := models.DefaultLimits()
	if c.Limits.MaxDocumentBytes == 0 {
		c.Limits.MaxDocumentBytes = defaults.MaxDocumentBytes
	}
	if c.Limits.MaxAudioBytes == 0 {
		c.Limits.MaxAudioBytes = defaults.MaxAudioBytes
	}
	if c.Limits.MaxAudioDurationSeconds == 0 {
		c.Limits.MaxAudioDurationSeconds = defaults.MaxAudioDurationSeconds
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = max(c.Limits.MaxDocumentBytes, c.Limits.MaxAudioBytes) + 10<<20
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Speech.MaxConcurrent <= 0 {
		c.Speech.MaxConcurrent = 1
	}
	if c.Speech.Whisper.Threads == 0 {
		c.Speech.Whisper.Threads = 4
	}
	if c.Speech.Whisper.Language == "" {
		c.Speech.Whisper.Language = "auto"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	return nil
}
