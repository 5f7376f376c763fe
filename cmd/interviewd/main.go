package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/interview-lab/interviewd/internal/config"
	"github.com/interview-lab/interviewd/internal/controller"
	"github.com/interview-lab/interviewd/internal/genai"
	"github.com/interview-lab/interviewd/internal/httpapi"
	"github.com/interview-lab/interviewd/internal/observability"
	"github.com/interview-lab/interviewd/internal/question"
	"github.com/interview-lab/interviewd/internal/resume"
	"github.com/interview-lab/interviewd/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	records, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer records.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("store: in-memory (set DATABASE_URL for postgres)")
	} else {
		log.Printf("store: postgres")
	}

	var client genai.Client
	if cfg.GeminiAPIKey != "" {
		client = genai.NewHTTPClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)
		log.Printf("genai: %s configured", cfg.GeminiModel)
	} else {
		log.Printf("genai: no GEMINI_API_KEY, fallback question catalogs only")
	}
	gateway := genai.New(client, genai.RetryPolicy{
		MaxAttempts: cfg.AIMaxAttempts,
		BaseBackoff: cfg.AIBaseBackoff,
		BackoffCap:  cfg.AIBackoffCap,
	}, metrics)

	counts := question.Counts{
		Technical: cfg.TechnicalQuestionCount,
		HR:        cfg.HRQuestionCount,
		Resume:    cfg.ResumeQuestionCount,
		Coding:    cfg.CodingQuestionCount,
	}

	deps := controller.Deps{
		Source:  question.NewSource(gateway, counts, metrics),
		Gateway: gateway,
		Store:   records,
		Metrics: metrics,
	}
	// No server-side speech or capture backends are wired; capture happens
	// at the client, and sessions run with inert speech and media engines.
	// Deployments with local backends inject them through these factories.
	sessions := controller.NewManager(cfg.SessionInactivityTimeout, deps, controller.Capabilities{
		Locale: cfg.SpeechLocale,
	})
	sessions.SetExpireHook(func(c *controller.Controller) {
		log.Printf("session %s expired after inactivity", c.ID())
	})

	analyzer := resume.NewAnalyzer(gateway)

	api := httpapi.New(cfg, sessions, analyzer, records, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, cfg.JanitorInterval)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
