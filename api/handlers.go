package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/config"
	"github.com/DeafMist/club-pulse/internal/elasticsearch"
	"github.com/DeafMist/club-pulse/internal/metrics"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/pipeline"
	"github.com/DeafMist/club-pulse/internal/validation"
)

type recordSearcher interface {
	SearchRecords(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
	Health(ctx context.Context) error
}

type server struct {
	log      *slog.Logger
	cfg      *config.API
	pipeline *pipeline.Pipeline
	search   recordSearcher
}

type errorResponse struct {
	Error     string               `json:"error"`
	Predicted *aggregate.Breakdown `json:"predicted,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Post("/runs/{source}/{scope}", s.handleRun)
		r.Post("/batches/{source}/{scope}", s.handleFetch)
		r.Get("/batches/{key}/analysis", s.handleAnalysis)
		r.Get("/batches/{key}/export", s.handleExport)
		r.Post("/validate", s.handleValidate)
		r.Get("/records", s.handleRecords)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "search": "disabled"}
	if s.search != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.search.Health(ctx); err != nil {
			// the corpus pipeline still works without the index
			s.log.Warn("search health", slog.Any("err", err))
			status["search"] = "unavailable"
		} else {
			status["search"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	src, scope := batchParams(r)
	res, err := s.pipeline.Run(r.Context(), src, scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	src, scope := batchParams(r)
	res, err := s.pipeline.Fetch(r.Context(), src, scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	key, err := models.ParseBatchKey(chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.pipeline.Analyze(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	key, err := models.ParseBatchKey(chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf strings.Builder
	if _, err := s.pipeline.Export(r.Context(), key, &buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(key)+`-scored.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, buf.String())
}

// handleValidate accepts the CSV either as the raw body or as the "file"
// field of a multipart form.
func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var body io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart upload needs a \"file\" field"})
			return
		}
		defer f.Close()
		body = f
	}

	res, err := s.pipeline.Validate(r.Context(), body)
	if err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (s *server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "record search is not configured"})
		return
	}

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:     strings.TrimSpace(q.Get("q")),
		Batch:     strings.TrimSpace(q.Get("batch")),
		Source:    strings.TrimSpace(q.Get("source")),
		Sentiment: strings.TrimSpace(q.Get("sentiment")),
		From:      clampInt(q.Get("from"), 0, 10_000),
		Size:      clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:      strings.TrimSpace(q.Get("sort")),
		Start:     parseDay(q.Get("start")),
		End:       parseDay(q.Get("end")),
	}

	result, err := s.search.SearchRecords(r.Context(), params)
	if err != nil {
		s.log.Error("search records", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := pipeline.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", slog.Any("err", err))
	}
	resp := errorResponse{Error: pipeline.UserMessage(err)}
	// a file without ground truth still gets its predicted shares
	var inputErr *validation.ValidationInputError
	if errors.As(err, &inputErr) {
		resp.Predicted = inputErr.Predicted
	}
	writeJSON(w, status, resp)
}

func batchParams(r *http.Request) (models.Source, models.Scope) {
	src := strings.ToLower(chi.URLParam(r, "source"))
	scope := strings.ToLower(chi.URLParam(r, "scope"))
	return models.Source(src), models.Scope(scope)
}

// parseDay accepts RFC 3339 timestamps or bare YYYY-MM-DD days.
func parseDay(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, models.DateLayout} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
