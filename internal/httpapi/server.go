package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/interview-lab/interviewd/internal/config"
	"github.com/interview-lab/interviewd/internal/controller"
	"github.com/interview-lab/interviewd/internal/genai"
	"github.com/interview-lab/interviewd/internal/interview"
	"github.com/interview-lab/interviewd/internal/media"
	"github.com/interview-lab/interviewd/internal/observability"
	"github.com/interview-lab/interviewd/internal/resume"
	"github.com/interview-lab/interviewd/internal/store"
)

// Server exposes the interview session API over HTTP plus a websocket event
// stream per session.
type Server struct {
	cfg      config.Config
	sessions *controller.Manager
	analyzer *resume.Analyzer
	records  store.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *controller.Manager, analyzer *resume.Analyzer, records store.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		analyzer: analyzer,
		records:  records,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly configured otherwise. Other sites
				// must not be able to observe a candidate's session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/interviews", s.handleCreate)
	r.Get("/v1/interviews/{id}", s.handleGet)
	r.Post("/v1/interviews/{id}/start", s.handleStart)
	r.Post("/v1/interviews/{id}/followup", s.handleFollowUp)
	r.Post("/v1/interviews/{id}/answer", s.handleAnswer)
	r.Post("/v1/interviews/{id}/feedback", s.handleFeedback)
	r.Post("/v1/interviews/{id}/end", s.handleEnd)
	r.Get("/v1/interviews/{id}/events", s.handleEvents)
	r.Get("/v1/interviews/{id}/records", s.handleRecords)

	r.Post("/v1/resume/analyze", s.handleResumeAnalyze)

	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"ai_configured": s.analyzer != nil && s.analyzer.Available(),
	})
}

type createRequest struct {
	Mode       interview.Mode       `json:"mode"`
	Job        interview.JobContext `json:"job"`
	OwnerEmail string               `json:"owner_email"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !req.Mode.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_mode", "mode must be one of technical, hr, resume, coding")
		return
	}
	if strings.TrimSpace(req.Job.Role) == "" {
		respondError(w, http.StatusBadRequest, "missing_role", "job.role is required")
		return
	}

	c := s.sessions.Create(req.Mode, req.Job, req.OwnerEmail)
	if err := c.Setup(r.Context()); err != nil {
		_ = s.sessions.End(r.Context(), c.ID())
		if errors.Is(err, media.ErrAccessDenied) {
			respondError(w, http.StatusConflict, "device_access_denied", "camera and microphone access is required for this interview mode")
			return
		}
		respondError(w, http.StatusInternalServerError, "setup_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.Start(r.Context()); err != nil {
		respondControllerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	text, err := c.AskFollowUp(r.Context())
	if err != nil {
		respondControllerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"follow_up": text})
}

type answerRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := c.SubmitAnswer(r.Context(), req.Text); err != nil {
		respondControllerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	analysis, records, err := c.GenerateFeedback(r.Context())
	if err != nil {
		respondControllerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"analysis": analysis,
		"records":  records,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.End(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// handleRecords serves persisted feedback records, which outlive the live
// session.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := s.records.FeedbackBySession(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	}

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case ev, open := <-c.Events():
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if s.metrics != nil {
				s.metrics.WSMessages.WithLabelValues(string(ev.Type)).Inc()
			}
		}
	}
}

type resumeAnalyzeRequest struct {
	Resume          string `json:"resume"`
	Recommendations bool   `json:"recommendations"`
}

func (s *Server) handleResumeAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "resume analysis not configured")
		return
	}
	var req resumeAnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	started := time.Now()
	analysis, err := s.analyzer.Analyze(r.Context(), req.Resume)
	if s.metrics != nil {
		s.metrics.Window.Observe(observability.StageResumeAnalysis, time.Since(started))
	}
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	payload := map[string]any{"analysis": analysis}
	if req.Recommendations {
		recs, err := s.analyzer.Recommend(r.Context(), analysis)
		if err != nil {
			respondGatewayError(w, err)
			return
		}
		payload["recommendations"] = recs
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "latency window not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.Window.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return nil, false
	}
	c, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return c, true
}

func respondControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controller.ErrEnded):
		respondError(w, http.StatusGone, "session_ended", err.Error())
	case errors.Is(err, controller.ErrWrongPhase):
		respondError(w, http.StatusConflict, "wrong_phase", err.Error())
	case errors.Is(err, controller.ErrBusy):
		respondError(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, controller.ErrNoFollowUps):
		respondError(w, http.StatusConflict, "no_follow_ups", err.Error())
	case errors.Is(err, media.ErrAccessDenied):
		respondError(w, http.StatusConflict, "device_access_denied", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func respondGatewayError(w http.ResponseWriter, err error) {
	var parseErr *genai.ParseError
	switch {
	case errors.Is(err, genai.ErrNotConfigured):
		respondError(w, http.StatusNotImplemented, "ai_not_configured", err.Error())
	case errors.Is(err, genai.ErrQuotaExceeded), errors.Is(err, genai.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "ai_unavailable", err.Error())
	case errors.Is(err, genai.ErrUnauthorized):
		respondError(w, http.StatusBadGateway, "ai_unauthorized", err.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusBadGateway, "ai_malformed_response", err.Error())
	default:
		respondError(w, http.StatusBadRequest, "analysis_failed", err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
