package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the interview service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	JanitorInterval          time.Duration
	MetricsNamespace         string
	SpeechLocale             string

	AllowAnyOrigin bool

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	AIMaxAttempts int
	AIBaseBackoff time.Duration
	AIBackoffCap  time.Duration

	TechnicalQuestionCount int
	HRQuestionCount        int
	ResumeQuestionCount    int
	CodingQuestionCount    int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "interviewd"),
		SpeechLocale:             envOrDefault("APP_SPEECH_LOCALE", "en-US"),
		AllowAnyOrigin:           false,
		GeminiAPIKey:             trimmedEnv("GEMINI_API_KEY"),
		GeminiModel:              envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:            envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		JanitorInterval:          30 * time.Second,
		AIMaxAttempts:            3,
		AIBaseBackoff:            time.Second,
		AIBackoffCap:             8 * time.Second,
		TechnicalQuestionCount:   5,
		HRQuestionCount:          5,
		ResumeQuestionCount:      5,
		CodingQuestionCount:      2,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.AIMaxAttempts, err = intFromEnv("AI_MAX_ATTEMPTS", cfg.AIMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.AIBaseBackoff, err = durationFromEnv("AI_BASE_BACKOFF", cfg.AIBaseBackoff)
	if err != nil {
		return Config{}, err
	}
	cfg.AIBackoffCap, err = durationFromEnv("AI_BACKOFF_CAP", cfg.AIBackoffCap)
	if err != nil {
		return Config{}, err
	}

	cfg.TechnicalQuestionCount, err = intFromEnv("TECHNICAL_QUESTION_COUNT", cfg.TechnicalQuestionCount)
	if err != nil {
		return Config{}, err
	}
	cfg.HRQuestionCount, err = intFromEnv("HR_QUESTION_COUNT", cfg.HRQuestionCount)
	if err != nil {
		return Config{}, err
	}
	cfg.ResumeQuestionCount, err = intFromEnv("RESUME_QUESTION_COUNT", cfg.ResumeQuestionCount)
	if err != nil {
		return Config{}, err
	}
	cfg.CodingQuestionCount, err = intFromEnv("CODING_QUESTION_COUNT", cfg.CodingQuestionCount)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 30*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 30s")
	}
	if cfg.AIMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("AI_MAX_ATTEMPTS must be positive")
	}
	for key, count := range map[string]int{
		"TECHNICAL_QUESTION_COUNT": cfg.TechnicalQuestionCount,
		"HR_QUESTION_COUNT":        cfg.HRQuestionCount,
		"RESUME_QUESTION_COUNT":    cfg.ResumeQuestionCount,
		"CODING_QUESTION_COUNT":    cfg.CodingQuestionCount,
	} {
		if count <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
