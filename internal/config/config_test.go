package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "interviewd" {
		t.Fatalf("MetricsNamespace = %q", cfg.MetricsNamespace)
	}
	if cfg.SpeechLocale != "en-US" {
		t.Fatalf("SpeechLocale = %q, want en-US", cfg.SpeechLocale)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty default", cfg.GeminiAPIKey)
	}
	if cfg.AIMaxAttempts != 3 || cfg.AIBaseBackoff != time.Second || cfg.AIBackoffCap != 8*time.Second {
		t.Fatalf("AI retry defaults = %d/%v/%v", cfg.AIMaxAttempts, cfg.AIBaseBackoff, cfg.AIBackoffCap)
	}
	if cfg.TechnicalQuestionCount != 5 || cfg.CodingQuestionCount != 2 {
		t.Fatalf("question counts = %d/%d", cfg.TechnicalQuestionCount, cfg.CodingQuestionCount)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("GEMINI_API_KEY", "  key-with-spaces  ")
	t.Setenv("AI_MAX_ATTEMPTS", "5")
	t.Setenv("AI_BASE_BACKOFF", "250ms")
	t.Setenv("HR_QUESTION_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.GeminiAPIKey != "key-with-spaces" {
		t.Fatalf("GeminiAPIKey = %q, want trimmed", cfg.GeminiAPIKey)
	}
	if cfg.AIMaxAttempts != 5 || cfg.AIBaseBackoff != 250*time.Millisecond {
		t.Fatalf("AI retry = %d/%v", cfg.AIMaxAttempts, cfg.AIBaseBackoff)
	}
	if cfg.HRQuestionCount != 3 {
		t.Fatalf("HRQuestionCount = %d", cfg.HRQuestionCount)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"APP_SESSION_INACTIVITY_TIMEOUT": "5s",
		"AI_MAX_ATTEMPTS":                "0",
		"CODING_QUESTION_COUNT":          "-1",
		"AI_BASE_BACKOFF":                "not-a-duration",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%q", key, value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_JANITOR_INTERVAL",
		"APP_METRICS_NAMESPACE",
		"APP_SPEECH_LOCALE",
		"APP_ALLOW_ANY_ORIGIN",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GEMINI_BASE_URL",
		"AI_MAX_ATTEMPTS",
		"AI_BASE_BACKOFF",
		"AI_BACKOFF_CAP",
		"TECHNICAL_QUESTION_COUNT",
		"HR_QUESTION_COUNT",
		"RESUME_QUESTION_COUNT",
		"CODING_QUESTION_COUNT",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
