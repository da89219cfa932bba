package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var dotEnvOnce sync.Once

// loadDotEnv loads .env from the working directory, or from ENV_FILE when
// set. Variables already in the environment win.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		envPath := os.Getenv("ENV_FILE")
		if envPath == "" {
			envPath = filepath.Join(".", ".env")
		}
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
		}
	})
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")

	setString(&c.Speech.Backend, "SPEECH_BACKEND")
	setInt(&c.Speech.MaxConcurrent, "SPEECH_MAX_CONCURRENT")
	setString(&c.Speech.Whisper.BinaryPath, "WHISPER_BINARY_PATH")
	setString(&c.Speech.Whisper.ModelPath, "WHISPER_MODEL_PATH")
	setString(&c.Speech.Whisper.Language, "WHISPER_LANGUAGE")
	setInt(&c.Speech.Whisper.Threads, "WHISPER_THREADS")
	setString(&c.Speech.Remote.Address, "SPEECH_REMOTE_ADDR")

	setString(&c.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	c.Storage.S3.applyEnv()
	c.Storage.Minio.applyEnv()
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
