// Package api exposes the workspace over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// Handler serves the HTTP API.
type Handler struct {
	app            *app.App
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHandler builds a Handler. maxUploadMB <= 0 means 64 MiB.
func NewHandler(a *app.App, logger *zap.Logger, maxUploadMB int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &Handler{app: a, logger: logger, maxUploadBytes: int64(maxUploadMB) << 20}
}

// Router mounts every route on a fresh chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(h.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Delete("/", h.DeleteProject)
			r.Get("/rows", h.Rows)
			r.Get("/export", h.Export)
			r.Get("/columns/{column}/unique", h.Unique)
			r.Route("/clean", func(r chi.Router) {
				r.Post("/impute", h.Impute)
				r.Post("/batch-impute", h.BatchImpute)
				r.Post("/remove-column", h.RemoveColumn)
				r.Post("/recode", h.Recode)
				r.Post("/outliers/detect", h.DetectOutliers)
				r.Post("/outliers/treat", h.TreatOutliers)
			})
			r.Post("/charts", h.Chart)
		})
	})
	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsPrecondition(err):
		return http.StatusUnprocessableEntity
	case errs.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v; malformed input is a validation error.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("body", "request body is empty")
		}
		return errs.Validation("body", "invalid JSON: %v", err)
	}
	return nil
}
