package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	LLM           LLMConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
	Interview     InterviewConfig
	Raster        RasterConfig
	Speech        SpeechConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string // "postgres" or "sqlite"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	HealthTimeout   time.Duration
}

// LLMConfig holds content-generation configuration
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// StorageConfig holds durable blob storage configuration
type StorageConfig struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
	Timeout      time.Duration
}

// TranscriptionConfig holds the transcription vendor and poll budget
type TranscriptionConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// InterviewConfig holds session timing and shape
type InterviewConfig struct {
	QuestionCount int
	CountdownLead time.Duration
	AnswerBudget  time.Duration
	Tick          time.Duration
}

// RasterConfig holds document rasterization configuration
type RasterConfig struct {
	Converter string // pdftoppm | magick
}

// SpeechConfig holds question narration configuration
type SpeechConfig struct {
	Binary string // e.g. espeak, say; empty disables narration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			HealthTimeout:   getEnvAsDuration("DB_HEALTH_TIMEOUT", 3*time.Second),
		},
		LLM: LLMConfig{
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			BaseURL:      getEnv("STORAGE_BASE_URL", "https://api.cloudinary.com/v1_1"),
			CloudName:    getEnv("STORAGE_CLOUD_NAME", ""),
			UploadPreset: getEnv("STORAGE_UPLOAD_PRESET", ""),
			Timeout:      getEnvAsDuration("STORAGE_TIMEOUT", 2*time.Minute),
		},
		Transcription: TranscriptionConfig{
			BaseURL:      getEnv("TRANSCRIBE_BASE_URL", "https://api.assemblyai.com"),
			APIKey:       getEnv("TRANSCRIBE_API_KEY", ""),
			Timeout:      getEnvAsDuration("TRANSCRIBE_TIMEOUT", 15*time.Second),
			PollInterval: getEnvAsDuration("TRANSCRIBE_POLL_INTERVAL", 2*time.Second),
			PollAttempts: getEnvAsInt("TRANSCRIBE_POLL_ATTEMPTS", 10),
		},
		Interview: InterviewConfig{
			QuestionCount: getEnvAsInt("INTERVIEW_QUESTION_COUNT", 5),
			CountdownLead: getEnvAsDuration("INTERVIEW_COUNTDOWN_LEAD", 5*time.Second),
			AnswerBudget:  getEnvAsDuration("INTERVIEW_ANSWER_BUDGET", 2*time.Minute),
			Tick:          getEnvAsDuration("INTERVIEW_TICK", time.Second),
		},
		Raster: RasterConfig{
			Converter: getEnv("RASTER_CONVERTER", "pdftoppm"),
		},
		Speech: SpeechConfig{
			Binary: getEnv("NARRATOR_BINARY", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Storage.CloudName == "" || c.Storage.UploadPreset == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_CLOUD_NAME and STORAGE_UPLOAD_PRESET are required", ErrInvalidInput)
	}
	if c.Transcription.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "TRANSCRIBE_API_KEY is required", ErrInvalidInput)
	}
	if c.Interview.QuestionCount <= 0 {
		return NewAppError("CONFIG_ERROR", "INTERVIEW_QUESTION_COUNT must be positive", ErrInvalidInput)
	}
	return nil
}
