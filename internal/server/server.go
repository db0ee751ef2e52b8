// Package server exposes the analysis engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finmetrics/internal/analysis"
	"github.com/sells-group/finmetrics/internal/config"
	"github.com/sells-group/finmetrics/internal/extractor"
	"github.com/sells-group/finmetrics/internal/model"
	"github.com/sells-group/finmetrics/internal/ocr"
	"github.com/sells-group/finmetrics/internal/store"
)

// maxUploadBytes bounds document uploads.
const maxUploadBytes = 50 << 20

// Server routes analysis requests. Extractor and OCR are optional: without
// them the document endpoint reports 503 and fact-set analysis still works.
type Server struct {
	store     store.Store
	extractor *extractor.Extractor
	ocr       ocr.Extractor
	policy    analysis.ScoringPolicy
	router    *chi.Mux
	port      int
}

// New creates a Server.
func New(cfg config.ServerConfig, st store.Store, ext *extractor.Extractor, ocrExt ocr.Extractor, policy analysis.ScoringPolicy) *Server {
	s := &Server{
		store:     st,
		extractor: ext,
		ocr:       ocrExt,
		policy:    policy,
		router:    chi.NewRouter(),
		port:      cfg.Port,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/document", s.handleAnalyzeDocument)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", s.port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

type analyzeRequest struct {
	Source  string            `json:"source"`
	Policy  string            `json:"policy,omitempty"`
	FactSet *model.RawFactSet `json:"fact_set"`
}

type analyzeResponse struct {
	RunID  string                `json:"run_id"`
	Result *model.AnalysisResult `json:"result"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FactSet == nil {
		writeError(w, http.StatusBadRequest, "fact_set is required")
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	s.runAnalysis(r.Context(), w, source, req.FactSet, req.Policy)
}

func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil || s.ocr == nil {
		writeError(w, http.StatusServiceUnavailable, "document analysis is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "finmetrics-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store upload")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		writeError(w, http.StatusInternalServerError, "store upload")
		return
	}

	text, err := s.ocr.ExtractText(r.Context(), tmp.Name())
	if err != nil {
		zap.L().Error("document text extraction failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from document")
		return
	}

	raw, err := s.extractor.Extract(r.Context(), text)
	if err != nil {
		zap.L().Error("fact extraction failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "could not extract facts from document")
		return
	}

	s.runAnalysis(r.Context(), w, header.Filename, raw, r.FormValue("policy"))
}

func (s *Server) runAnalysis(ctx context.Context, w http.ResponseWriter, source string, raw *model.RawFactSet, policyOverride string) {
	policy := s.policy
	if policyOverride != "" {
		policy = analysis.ScoringPolicy(policyOverride)
	}
	if policy == "" {
		policy = analysis.DefaultPolicy(raw)
	}

	run, err := s.store.CreateRun(ctx, source)
	if err != nil {
		zap.L().Error("create run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create run")
		return
	}

	result, err := analysis.Analyze(raw, analysis.Options{Policy: policy})
	if err != nil {
		_ = s.store.FailRun(ctx, run.ID, err.Error())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		zap.L().Error("persist result failed", zap.String("run_id", run.ID), zap.Error(err))
	}

	zap.L().Info("analysis complete",
		zap.String("run_id", run.ID),
		zap.String("source", source),
		zap.Float64("accuracy", result.Accuracy),
		zap.Int("warnings", len(result.Warnings)),
	)

	writeJSON(w, http.StatusOK, analyzeResponse{RunID: run.ID, Result: result})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Source: r.URL.Query().Get("source"),
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs")
		return
	}
	if runs == nil {
		runs = []model.AnalysisRun{}
	}

	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
